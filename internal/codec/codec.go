// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package codec serializes trees of tagged product values to a compact,
// cookie-framed binary form that preserves object sharing.
//
// Every value on the wire is introduced by a one-byte cookie:
//
//	'I' int32        'F' float32      'D' float64
//	'S' string       'O' optional     'B' bool
//	'R' rate id      'X' vector       'P' product
//	'<' back-reference to a previously decoded product
//
// Numbers are big-endian. Strings carry an unsigned 16-bit length prefix,
// vectors a signed 32-bit element count. A product is written as its key,
// a 16-bit arity and then each field in declared order. Keys that live in
// the configured default namespace are written without that prefix.
//
// Each product is assigned the next sequential id once it is fully written
// (or read). When the encoder meets a pointer product it already emitted, it
// writes a back-reference carrying that id instead of the product, and the
// decoder resolves it from its table, so shared sub-trees stay shared.
package codec

import (
	"errors"
	"fmt"
)

const (
	cookieInt     byte = 'I'
	cookieFloat   byte = 'F'
	cookieDouble  byte = 'D'
	cookieString  byte = 'S'
	cookieOption  byte = 'O'
	cookieBool    byte = 'B'
	cookieRate    byte = 'R'
	cookieVector  byte = 'X'
	cookieProduct byte = 'P'
	cookieRef     byte = '<'
)

// AnyArity registers a reader that accepts any field count.
const AnyArity = -1

// Product is a tagged product value: a key naming its type and an ordered
// list of fields. Field values may be int, int32, float32, float64, string,
// *string (optional), bool, rate.Rate, another Product, or a slice of any of
// these.
type Product interface {
	TypeKey() string
	Fields() []any
}

var (
	ErrBadCookie     = errors.New("unexpected cookie")
	ErrNoSuchReader  = errors.New("no such reader")
	ErrArity         = errors.New("field count mismatch")
	ErrBadReference  = errors.New("invalid back-reference")
	ErrBadValue      = errors.New("invalid value")
	ErrDuplicateKey  = errors.New("duplicate reader key")
	ErrUnsupported   = errors.New("unsupported value type")
	ErrValueTooLarge = errors.New("value too large")

	ErrNonCanonicalKey = errors.New("non-canonical product key")
)

// DecodingError reports a malformed input. It is always fatal to the decode
// that produced it.
type DecodingError struct {
	Offset int64
	Key    string
	Err    error
	Msg    string
}

func (e *DecodingError) Error() string {
	msg := fmt.Sprintf("codec: decode at offset %d", e.Offset)
	if e.Key != "" {
		msg += fmt.Sprintf(" (%s)", e.Key)
	}
	msg += ": " + e.Err.Error()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

func (e *DecodingError) Unwrap() error { return e.Err }

// ConfigurationError reports a registry misconfiguration, such as
// registering the same key twice.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("codec: reader %q: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Option configures an Encoder or a Decoder.
type Option func(*options)

type options struct {
	namespace    string
	hasNamespace bool
	env          any
}

// WithNamespace sets the default key namespace. Keys of the form
// "<namespace>.<Name>" are written as "<Name>", and keys read without a dot
// are resolved inside the namespace.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
		o.hasNamespace = true
	}
}

// WithEnv attaches an arbitrary value that readers can retrieve with
// ProductReader.Env, typically the context new values are constructed in.
func WithEnv(env any) Option {
	return func(o *options) { o.env = env }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
