/*
Package balance implements the durable storage of custody ledger balances.

Store keeps a single amount per account and the sum of all credited amounts.
It does not validate anything: only the custody contract decides what can be
credited. Store works over a write-caching key-value view (usually neo-go's
storage.MemCachedStore), so changes become durable only when the view is
persisted by the caller.

Storage layout

	'a' || account -> balance
	't'            -> total supply

Amounts are encoded with neo-go's bigint.ToBytes. Accounts that never
received a deposit have no storage item and zero balance.
*/
package balance
