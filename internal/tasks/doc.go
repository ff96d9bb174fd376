// Package tasks detects playlist changes and delivers notifications for them.
//
// # Pipeline
//
// [Checker.CheckCollection] runs one poll of a tracked collection:
//
//  1. Fetch the latest items from a [services.Source]
//  2. Load the stored snapshot; an empty one means this is the baseline poll and nothing is reported
//  3. [Compare] the two snapshots into added, removed and renamed items
//  4. [Notifier.NotifyAndRecord] sends each change not yet in the [Ledger]
//  5. Replace the stored snapshot and last-check time in one transaction
//
// A fetch error leaves the stored snapshot alone. A failed send leaves its change
// unmarked, so it is retried on the next poll while the change is still visible.
//
// # Scheduling
//
// [Scheduler] drives the pipeline over every active collection on a cron cadence,
// sequentially, spaced by a pause. Panics and errors are contained per collection.
// [Checker.CheckSubscriber] is the manual trigger used by the bot and the CLI.
//
// # Progress Reporting
//
// Long operations report through a [ProgressUpdate] channel. Sends never block;
// updates are dropped when the channel is full or nil.
package tasks
