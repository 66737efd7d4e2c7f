// Package prisonwarden implements a moderation-focused Discord bot for
// managing a ban-appeals workflow.
//
// The bot listens to guild gateway events (invite creation/deletion, member
// joins) and exposes prefix-triggered chat commands for moderators:
//
//   - invites: list active invites, and find or purge "stale" single-use
//     invites (never used, older than a configured age threshold)
//   - invite: hand out a one-time-use invite for the guild's configured
//     invite channel, reusing the oldest stale invite when possible
//   - notes: record, list, and rename moderator notes against a user
//   - appeals: list users currently holding one of the guild's configured
//     appeal roles, ordered by join time
//   - joins: show recorded join events for a user
//   - banall / kickall / unbanall: bulk moderation actions
//
// Key components of the package include:
//
//   - PrisonWarden: the main struct tying together configuration, the
//     database, the Discord session and the command router.
//   - Discord: the Discord gateway/REST integration.
//   - API: an optional read-only HTTP status API.
//
// All persistence goes through GORM models for the notes, joins, config,
// modlog_channels and appeals_roles tables. Guild configuration rows are
// treated as read-only by the bot itself and are seeded with the 'init'
// subcommand.
package prisonwarden
