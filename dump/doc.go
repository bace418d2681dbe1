/*
Package dump provides I/O operations for snapshots of the custody ledger.

A snapshot consists of the ledger parameters and all raw storage items of the
ledger taken at some height. Snapshots allow to move the ledger between
storage backends, keep backups and reproduce ledger states in tests.

The package works with dumps stored in the file system using human-readable
encoding.
*/
package dump
