package holder

import (
	"fmt"
	"reflect"
	"sync"
)

// Universe is the ordered set of constants of an enum type used as keys of
// enum-keyed resource maps.
type Universe struct {
	Name      string
	Type      reflect.Type
	Constants []reflect.Value
	Names     []string
}

//nolint:gochecknoglobals // process wide registry, like encoding/gob
var enumRegistry = struct {
	sync.RWMutex
	byName map[string]*Universe
}{byName: map[string]*Universe{}}

// RegisterEnum declares the universe of an enum type under name. The key
// suffix of every constant is fmt.Sprint(constant), so types implementing
// fmt.Stringer contribute their String value. Registering a name again with
// the same type replaces its constants.
func RegisterEnum[E comparable](name string, constants ...E) (*Universe, error) {
	if name == "" {
		return nil, fmt.Errorf("holder: enum name is empty")
	}

	u := &Universe{
		Name: name,
		Type: reflect.TypeFor[E](),
	}
	seen := make(map[E]struct{}, len(constants))
	for _, c := range constants {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		u.Constants = append(u.Constants, reflect.ValueOf(c))
		u.Names = append(u.Names, fmt.Sprint(c))
	}

	enumRegistry.Lock()
	defer enumRegistry.Unlock()
	if prev, ok := enumRegistry.byName[name]; ok && prev.Type != u.Type {
		return nil, fmt.Errorf("holder: enum %q already registered for %s", name, prev.Type)
	}
	enumRegistry.byName[name] = u
	return u, nil
}

// MustRegisterEnum is like RegisterEnum but panics on error. It is meant for
// package level variable initialisation.
func MustRegisterEnum[E comparable](name string, constants ...E) *Universe {
	u, err := RegisterEnum(name, constants...)
	if err != nil {
		panic(err)
	}
	return u
}

// LookupEnum returns the universe registered under name.
func LookupEnum(name string) (*Universe, bool) {
	enumRegistry.RLock()
	defer enumRegistry.RUnlock()
	u, ok := enumRegistry.byName[name]
	return u, ok
}

// Fits reports whether the constants can be used as keys of a map with the
// given key type.
func (u *Universe) Fits(keyType reflect.Type) bool {
	return u.Type == keyType || u.Type.AssignableTo(keyType)
}
