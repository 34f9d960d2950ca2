package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "prism/pkg/domain-errors"
)

// LimitsSuite checks the boundary: max passes, max+1 fails.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckSize() {
	s.Run("passes at max", func() {
		s.NoError(CheckSize("message", MaxMessageSize, MaxMessageSize))
	})

	s.Run("passes when empty", func() {
		s.NoError(CheckSize("message", 0, MaxMessageSize))
	})

	s.Run("fails above max", func() {
		err := CheckSize("message", MaxMessageSize+1, MaxMessageSize)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "message too large")
	})
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.Run("passes at max", func() {
		s.NoError(CheckStringLength("sessionId", strings.Repeat("a", MaxSessionIDLength), MaxSessionIDLength))
	})

	s.Run("fails above max", func() {
		err := CheckStringLength("sessionId", strings.Repeat("a", MaxSessionIDLength+1), MaxSessionIDLength)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "sessionId exceeds max length of 256")
	})
}
