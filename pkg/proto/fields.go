//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package proto

import (
	"strings"

	"github.com/spaolacci/murmur3"
)

type (
	// Field is one header or trailer line, stored verbatim.
	Field struct {
		Name  string
		Value string
	}

	// Fields is an ordered multimap of message fields. Insertion
	// order is preserved and duplicate names are retained; lookup is
	// case-insensitive through a hash index so repeated scans of a
	// large field table stay cheap.
	Fields struct {
		fields []Field
		index  map[uint32][]int
	}
)

func nameHash(name string) uint32 {
	// field names are short ASCII; fold case on the stack
	var buf [64]byte
	b := buf[:0]
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return murmur3.Sum32(b)
}

// Add appends a field, keeping earlier fields with the same name.
func (f *Fields) Add(name, value string) {
	if f.index == nil {
		f.index = make(map[uint32][]int)
	}
	h := nameHash(name)
	f.index[h] = append(f.index[h], len(f.fields))
	f.fields = append(f.fields, Field{Name: name, Value: value})
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	return len(f.fields)
}

// At returns the i-th field in insertion order.
func (f *Fields) At(i int) Field {
	return f.fields[i]
}

// Get returns the first value for name, case-insensitively.
func (f *Fields) Get(name string) (string, bool) {
	for _, i := range f.index[nameHash(name)] {
		if strings.EqualFold(f.fields[i].Name, name) {
			return f.fields[i].Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, in insertion order.
func (f *Fields) Values(name string) []string {
	var out []string
	for _, i := range f.index[nameHash(name)] {
		if strings.EqualFold(f.fields[i].Name, name) {
			out = append(out, f.fields[i].Value)
		}
	}
	return out
}

// Reset clears the table for reuse.
func (f *Fields) Reset() {
	f.fields = f.fields[:0]
	for k := range f.index {
		delete(f.index, k)
	}
}
