package storage

import "fmt"

// Key schema, scoped per chain so a wallet can hold bootstrap state for
// several backends side by side:
//
//   <chainID>:privkey              → hex private key (proof chain keypair)
//   <chainID>:account-address      → deployed account contract address
//   <chainID>:account-initialized  → "1" once the initialize call succeeded
//   <chainID>:allowance:<currency> → cached on-chain allowance (decimal string)

// PrivKeyKey returns the store key for the proof-chain private key.
func PrivKeyKey(chainID uint64) string {
	return fmt.Sprintf("%d:privkey", chainID)
}

// AccountAddressKey returns the store key for the deployed account address.
func AccountAddressKey(chainID uint64) string {
	return fmt.Sprintf("%d:account-address", chainID)
}

// AccountInitializedKey returns the store key for the one-time initialize flag.
func AccountInitializedKey(chainID uint64) string {
	return fmt.Sprintf("%d:account-initialized", chainID)
}

// AllowanceKey returns the store key for a cached token allowance.
func AllowanceKey(chainID uint64, currency string) string {
	return fmt.Sprintf("%d:allowance:%s", chainID, currency)
}
