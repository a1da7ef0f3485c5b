// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps a thread-safe singleton validator that reports fields by their
// koanf path, so an error for Config.Recommend.K reads "recommend.k must be
// at least 1" and points straight at the config key to fix.
//
// # Custom Validators
//
//   - loglevel: a zerolog level name (trace, debug, info, warn, error, ...)
//
// # Usage
//
//	type BuildConfig struct {
//	    Workers int `koanf:"workers" validate:"min=1,max=256"`
//	}
//
//	if err := validation.ValidateStruct(&cfg); err != nil {
//	    var verr *validation.StructValidationError
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Errors() {
//	            fmt.Println(fe.Field(), fe.Tag())
//	        }
//	    }
//	}
package validation
