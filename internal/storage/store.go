// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage provides the durable, string-valued key/value store the client
keeps its session and navigation state in.

Backends:

  - [MemoryStore]: process-local, used by tests and ephemeral shells.
  - [FileStore]: a single JSON document on disk (0600), rewritten atomically.
  - [RedisStore]: keys namespaced per device, for shells running on shared hosts.

# Ownership

The store itself has no notion of ownership. By convention every key has
exactly one writer: the session store owns the token, identity and role keys,
and the navigation gate owns the stage key.
*/
package storage

import "context"

// # Contract

// Store defines the durable key/value contract.
type Store interface {

	/*
		Get returns the value stored under key.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - string: Stored value
		  - bool: false when the key is absent
		  - error: Backend failures
	*/
	Get(context context.Context, key string) (string, bool, error)

	/*
		Set stores value under key, replacing any previous value.

		Parameters:
		  - context: context.Context
		  - key: string
		  - value: string

		Returns:
		  - error: Backend failures
	*/
	Set(context context.Context, key, value string) error

	/*
		Delete removes every given key. Missing keys are not an error.

		Parameters:
		  - context: context.Context
		  - keys: ...string

		Returns:
		  - error: Backend failures
	*/
	Delete(context context.Context, keys ...string) error
}
