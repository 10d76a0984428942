package task

import "reflect"

// TypeKey is a process-wide, stable identifier for a static type T. Two
// distinct types always produce distinct keys; the same type always
// produces the same key within the process. It is the Go-native
// replacement for the original runtime's static-local-address fingerprint
// (t9::type2int<T>): reflect.Type values are already interned and
// comparable, so they serve as a TypeKey with no extra bookkeeping.
type TypeKey reflect.Type

// KeyOf returns the TypeKey for T.
func KeyOf[T any]() TypeKey {
	var zero T
	return reflect.TypeOf(&zero).Elem()
}
