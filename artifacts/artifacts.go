// Copyright (C) 2019-2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package artifacts loads compiled contract artifacts (ABI + creation code).
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrNoBytecode       = errors.New("artifact has no creation bytecode")
)

// Artifact is a compiled contract.
type Artifact struct {
	ContractName     string
	SourceName       string
	ABI              abi.ABI
	RawABI           json.RawMessage
	Bytecode         []byte
	DeployedBytecode []byte
}

// rawArtifact covers both the Hardhat artifact format and the Ubeswap/Uniswap
// metadata format, whose abi field is a JSON encoded string.
type rawArtifact struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         json.RawMessage `json:"bytecode"`
	DeployedBytecode json.RawMessage `json:"deployedBytecode"`
}

// Parse decodes an artifact document.
func Parse(data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}

	rawABI, err := unwrapABI(raw.ABI)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(strings.NewReader(string(rawABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of %s: %w", raw.ContractName, err)
	}

	code, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("bad bytecode in %s: %w", raw.ContractName, err)
	}
	deployed, err := decodeBytecode(raw.DeployedBytecode)
	if err != nil {
		return nil, fmt.Errorf("bad deployed bytecode in %s: %w", raw.ContractName, err)
	}

	return &Artifact{
		ContractName:     raw.ContractName,
		SourceName:       raw.SourceName,
		ABI:              parsed,
		RawABI:           rawABI,
		Bytecode:         code,
		DeployedBytecode: deployed,
	}, nil
}

func unwrapABI(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage("[]"), nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode abi string: %w", err)
	}
	return json.RawMessage(s), nil
}

// decodeBytecode accepts "0x..." strings and the {"object": "..."} form solc
// emits in standard JSON output.
func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if raw[0] == '{' {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		s = obj.Object
	} else if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == "" || s == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	if strings.Contains(s, "__") {
		return nil, errors.New("unlinked library placeholder")
	}
	return hexutil.Decode(s)
}

// Store loads artifacts from a Hardhat artifacts directory and caches them.
type Store struct {
	dir string

	lock   sync.Mutex
	loaded map[string]*Artifact
	index  map[string]string
}

// NewStore returns a store rooted at [dir] (usually "artifacts").
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		loaded: make(map[string]*Artifact),
	}
}

// Dir is the root the store reads from.
func (s *Store) Dir() string { return s.dir }

// Add registers an artifact that does not live on disk.
func (s *Store) Add(name string, a *Artifact) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.loaded[name] = a
}

// Get returns the artifact of contract [name].
func (s *Store) Get(name string) (*Artifact, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if a, ok := s.loaded[name]; ok {
		return a, nil
	}
	if err := s.buildIndex(); err != nil {
		return nil, err
	}
	path, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, name, s.dir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if a.ContractName == "" {
		a.ContractName = name
	}
	s.loaded[name] = a
	return a, nil
}

// Deployable returns the artifact of [name] and fails if it has no creation
// code (interfaces and abstract contracts).
func (s *Store) Deployable(name string) (*Artifact, error) {
	a, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if len(a.Bytecode) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, name)
	}
	return a, nil
}

// buildIndex maps contract names to artifact files. Debug files (*.dbg.json)
// and build-info are skipped.
func (s *Store) buildIndex() error {
	if s.index != nil {
		return nil
	}
	index := make(map[string]string)
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "build-info" {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".dbg.json") {
			return nil
		}
		contract := strings.TrimSuffix(name, ".json")
		// Ubeswap ships metadata/<Contract>/artifact.json.
		if contract == "artifact" {
			contract = filepath.Base(filepath.Dir(path))
		}
		if _, dup := index[contract]; !dup {
			index[contract] = path
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to scan artifacts in %s: %w", s.dir, err)
	}
	s.index = index
	return nil
}
