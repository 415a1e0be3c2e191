// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"encoding/binary"
	"reflect"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// Mapping is a typed key/value storage abstraction, similar to a mapping in
// Solidity. Values are RLP encoded; slots are keccak-derived from the base
// name and the raw key.
type Mapping[V any] struct {
	context *Context
	base    []byte
}

func NewMapping[V any](context *Context, name string) *Mapping[V] {
	return &Mapping[V]{context: context, base: []byte(name)}
}

func (m *Mapping[V]) slot(key []byte) []byte {
	return crypto.Keccak256(m.base, key)
}

// Get returns the decoded value for the key, or an initialized empty value
// if the key was never set.
func (m *Mapping[V]) Get(key []byte) (value V, err error) {
	if reflect.ValueOf(&value).Elem().Kind() == reflect.Ptr {
		value = reflect.New(reflect.TypeOf(value).Elem()).Interface().(V)
	}
	raw, ok, err := m.context.Get(m.slot(key))
	if err != nil || !ok || len(raw) == 0 {
		return value, err
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrap(err, "decode mapping value")
	}
	return value, nil
}

// Set encodes and stores the value for the key.
func (m *Mapping[V]) Set(key []byte, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrap(err, "encode mapping value")
	}
	m.context.Put(m.slot(key), raw)
	return nil
}

// Slot is a single typed storage slot.
type Slot[V any] struct {
	m *Mapping[V]
}

func NewSlot[V any](context *Context, name string) *Slot[V] {
	return &Slot[V]{m: NewMapping[V](context, name)}
}

func (s *Slot[V]) Get() (V, error) {
	return s.m.Get(nil)
}

func (s *Slot[V]) Set(value V) error {
	return s.m.Set(nil, value)
}

// Uint64Key encodes a uint64 mapping key.
func Uint64Key(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// CompositeKey joins multiple key parts into one mapping key.
func CompositeKey(parts ...[]byte) []byte {
	var size int
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 0, size)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}
