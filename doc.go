/*
Package jsonmin minimizes the JSON assets of a build and caches the results.

It re-serializes every selected asset the way JSON.stringify(JSON.parse(s))
would, optionally filtering keys and pretty printing, and remembers each
output under a fingerprint of the input so unchanged assets are never
formatted twice.

# Overview

A build pass goes through three steps:
  - Select - pick the assets whose names pass the test, include and exclude rules
  - Format - parse and re-serialize each selected asset
  - Publish - replace the asset content and mark it minimized

The minimizer talks to the host build through a Registry and to the cache
through a Store. Each selected asset is processed in its own goroutine;
one asset failing never stops the others.

# Basic Usage

Creating a minimizer:

	m, err := jsonmin.New(jsonmin.Options{
	    Exclude:          jsonmin.Rule{jsonmin.Literal("vendor/")},
	    MinimizerOptions: jsonmin.FormatOptions{Indent: jsonmin.IndentWidth(2)},
	})
	if err != nil {
	    log.Fatalf("Invalid options: %v", err)
	}

Running a pass over the build's assets:

	reg := jsonmin.NewMapRegistry("/project")
	reg.Emit("data.json", content, jsonmin.Info{})

	cache, err := jsonmin.Open(".cache/jsonmin")
	if err != nil {
	    log.Fatalf("Failed to open cache: %v", err)
	}

	report := m.Run(reg, cache)
	for _, err := range report.Errors {
	    log.Println(err)
	}

Formatting a single document:

	out, err := jsonmin.Format(input, jsonmin.FormatOptions{})

# Rules

A Rule is a list of matchers. A Literal matches names containing it, a
Regexp matches names it accepts. An empty Rule is absent: an absent test
falls back to DefaultTest, which selects names ending in .json with an
optional query string. Exclude always wins over include.

# Replacers

An AllowList keeps only the listed keys at every depth and emits them in
list order. A ReplacerFunc sees every key/value pair, parents first, and
may return Omit to drop a pair.

# Stores

Three Store implementations are provided:
  - MemoryStore - lives as long as the process
  - Cache - content-addressed entries on a filesystem, see Open and OpenTemp
  - NopStore - disables caching

Store failures never fail a build: a failed lookup is a miss and a failed
store is ignored.

Cache blobs can be compressed with zstd (WithCompression) or lz4
(WithCompressionCodec). Entries record their codec, so a cache reads
whatever it finds regardless of how it was opened.

# File Structure

The durable cache uses the following directory structure:

	.cache/
	├── manifests/
	│   └── [first 2 chars of hash]/
	│       └── [full hash].json
	└── objects/
	    └── [first 2 chars of hash]/
	        └── [full hash]/
	            └── output.dat (or output.dat.zst, output.dat.lz4)

# Error Handling

The package defines several error types:

  - ErrCacheMiss: returned by stores when an entry is not found
  - MalformedInputError: the input is not valid JSON
  - AssetError: one asset of a pass failed, rendered for the host's error list
  - CacheUnavailableError: a store backend failed
  - ValidationError: invalid options, keys or cache writes
*/
package jsonmin
