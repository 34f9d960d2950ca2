// Package txsigner supplies the signing identity and gas strategy used for
// every ledger write.
//
// The signer is built once from configured key material and passed explicitly
// into the ledger client; there is no process-wide credential state. Gas
// policies are interchangeable: FixedPolicy prices legacy transactions
// statically, DynamicPolicy estimates limits and prices EIP-1559 fees from the
// chain head.
package txsigner
