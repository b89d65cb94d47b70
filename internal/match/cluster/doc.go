// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

// Package cluster implements the unsupervised grouping signal for the
// matching engine.
//
// Feature extraction maps every user record to a fixed-length vector:
// one bit per supported language, normalized budget bounds, normalized
// age, solo-traveler and first-time-visitor bits, an encoded gender
// value and four independent accessibility bits. The k-means model
// standardizes vectors against the training population before fitting
// and prediction.
//
// Clustering captures coarse demographic and situational similarity
// (budget tier, age, accessibility needs, solo/first-time status)
// independent of stated interests, providing a secondary signal for
// the composite score.
package cluster
