// Package models defines domain entities for the playlist watcher.
//
//   - [TrackedCollection] : a playlist watched for one subscriber, with its polling interval and last check
//   - [Item] : one video in the last observed snapshot of a playlist
//   - [ChangeSet] : added, removed and renamed items between two snapshots
//   - [NotifiedChange] : a dedup ledger row recording that a change was delivered
//
// Ledger kinds are [KindAdded], [KindRemoved], or a title fingerprint from [TitleKind],
// so each distinct rename of the same item is delivered once.
package models
