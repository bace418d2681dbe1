/*
Package custody implements a custodial ledger accepting deposits of a single
currency.

The ledger is created once with Instantiate and reopened with Open. The
instantiating caller must attach bootstrap funds: exactly one entry of the
ledger currency with amount not less than the configured minimum. Otherwise
instantiation fails with ErrInvalidInstantiation and nothing is written to the
storage.

Any caller can deposit funds with Deposit. The attached funds vector is
checked strictly in the following order:

 1. the vector must not be empty;
 2. the vector must consist of exactly one entry, any additional entry
    (even a zero-amount entry of the ledger currency) rejects the call;
 3. the entry must be of the ledger currency;
 4. the entry amount must be positive.

Only then the caller balance is credited once. Failed checks return
ErrInvalidDeposit and leave the ledger unchanged. Entries are never summed or
filtered: a genuine-looking entry hidden next to foreign funds must not be
credited.

Anyone can read balances with Balance. Unknown accounts have zero balance.

Every call is executed as an atomic unit: calls are serialized per storage,
even across several Contract values opened over it, and all changes of a call
are collected in a neo-go storage.MemCachedStore which is persisted into the
durable storage only when the call succeeds.

Contract notifications

Deposit notification. It is passed to Prm.OnDeposit after the deposit is
committed.

	Deposit:
	  - name: callID
	    type: String
	  - name: account
	    type: String
	  - name: amount
	    type: Integer
	  - name: height
	    type: Integer
*/
package custody
