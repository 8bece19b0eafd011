// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package dag holds a small dependency graph of named nodes. The graph
// front-end uses it to order signal definitions so that every signal is
// evaluated after the signals it references.
package dag
