// Package repositories implements SQLite persistence for the playlist watcher.
//
// Key Implementations:
//   - [CollectionRepository] : tracked playlists, ownership and activation
//   - [ItemRepository] : the last observed snapshot per playlist, replaced atomically after each poll
//   - [NotificationRepository] : the dedup ledger of delivered changes
//
// [Store] groups all three over a single *sql.DB. Mutating failures wrap [shared.ErrPersistence].
package repositories
