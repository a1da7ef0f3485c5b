// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package logging provides the zerolog-based logger shared by every mpdrec
// stage.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "console"})
//
//	ctx = logging.ContextWithNewRunID(ctx)
//	ctx = logging.ContextWithStage(ctx, "build")
//	logging.Ctx(ctx).Info().Int("shards", 1000).Msg("Build started")
//
// # Fields
//
// Entries written through Ctx carry run_id (the first 8 characters of the
// run UUID) and stage. Component loggers from WithComponent carry component.
//
// Always terminate an event with Msg or Send, and prefer structured fields
// over Msgf.
package logging
