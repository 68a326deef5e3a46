// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"errors"
	"fmt"
	"slices"

	goset "github.com/deckarep/golang-set/v2"
)

// NewBooleanValidator returns a validator failing with message when isTrue is false.
func NewBooleanValidator(isTrue bool, message string) Validator {
	return ValidatorFunc(func() error {
		if !isTrue {
			return errors.New(message)
		}
		return nil
	})
}

// NewPositiveValidator checks that the named value is at least one.
func NewPositiveValidator(name string, value int) Validator {
	return ValidatorFunc(func() error {
		if value < 1 {
			return fmt.Errorf("the [%s] must be greater than zero, got %d", name, value)
		}
		return nil
	})
}

// NewUniqueValidator checks that values holds no duplicate.
func NewUniqueValidator[T comparable](name string, values []T) Validator {
	return ValidatorFunc(func() error {
		seen := goset.NewThreadUnsafeSetWithSize[T](len(values))
		duplicates := goset.NewThreadUnsafeSet[T]()
		for _, value := range values {
			if !seen.Add(value) {
				duplicates.Add(value)
			}
		}
		if duplicates.Cardinality() > 0 {
			return fmt.Errorf("the [%s] contains duplicates: %v", name, sorted(duplicates))
		}
		return nil
	})
}

// NewMembershipValidator checks that every value belongs to the registered set.
func NewMembershipValidator[T comparable](name string, registered goset.Set[T], values []T) Validator {
	return ValidatorFunc(func() error {
		unknown := goset.NewThreadUnsafeSet[T]()
		for _, value := range values {
			if !registered.Contains(value) {
				unknown.Add(value)
			}
		}
		if unknown.Cardinality() > 0 {
			return fmt.Errorf("the [%s] references unregistered values: %v", name, sorted(unknown))
		}
		return nil
	})
}

// NewMaxOccurrenceValidator checks that no value occurs more than limit times.
func NewMaxOccurrenceValidator[T comparable](name string, values []T, limit int) Validator {
	return ValidatorFunc(func() error {
		occurrences := make(map[T]int, len(values))
		for _, value := range values {
			occurrences[value]++
		}
		over := goset.NewThreadUnsafeSet[T]()
		for value, count := range occurrences {
			if count > limit {
				over.Add(value)
			}
		}
		if over.Cardinality() > 0 {
			return fmt.Errorf("the [%s] exceeds %d occurrences for: %v", name, limit, sorted(over))
		}
		return nil
	})
}

// sorted renders a set deterministically
func sorted[T comparable](set goset.Set[T]) []string {
	out := make([]string, 0, set.Cardinality())
	for _, value := range set.ToSlice() {
		out = append(out, fmt.Sprint(value))
	}
	slices.Sort(out)
	return out
}
