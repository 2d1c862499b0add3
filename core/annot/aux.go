package annot

import "sync"

// AuxKey names a slot in a document's auxiliary registry.
type AuxKey int

// Auxiliary registry keys.
const (
	// AuxInterop holds the foreign-framework object a document was converted from.
	AuxInterop AuxKey = iota
	// AuxTokenIndex holds a token lookup structure built by a pipeline stage.
	AuxTokenIndex
	// AuxSentenceIndex holds a sentence lookup structure built by a pipeline stage.
	AuxSentenceIndex
	// AuxExternal is free for callers outside this module.
	AuxExternal
)

var auxKeyNames = map[AuxKey]string{
	AuxInterop:       "interop",
	AuxTokenIndex:    "token-index",
	AuxSentenceIndex: "sentence-index",
	AuxExternal:      "external",
}

// String returns the key name.
func (k AuxKey) String() string {
	if name, ok := auxKeyNames[k]; ok {
		return name
	}
	return "unknown"
}

// AuxRegistry stores companion objects alongside a document. Unlike the rest
// of the document it is safe for concurrent use.
type AuxRegistry struct {
	mu      sync.Mutex
	entries map[AuxKey]any
}

func newAuxRegistry() *AuxRegistry {
	return &AuxRegistry{entries: make(map[AuxKey]any)}
}

// Exists reports whether key holds an object.
func (r *AuxRegistry) Exists(key AuxKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[key]
	return ok
}

// Get returns the object stored under key.
func (r *AuxRegistry) Get(key AuxKey) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[key]
	return v, ok
}

// PutIfAbsent stores v under key unless an object is already there. It
// returns the object now stored and whether v was the one stored.
func (r *AuxRegistry) PutIfAbsent(key AuxKey, v any) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[key]; ok {
		return existing, false
	}
	r.entries[key] = v
	return v, true
}

// GetOrCreate returns the object under key, calling create to build it when
// absent. create runs with the registry locked, so it runs at most once per
// key and must not call back into the registry. A create error leaves the
// slot empty.
func (r *AuxRegistry) GetOrCreate(key AuxKey, create func() (any, error)) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.entries[key]; ok {
		return v, nil
	}
	v, err := create()
	if err != nil {
		return nil, err
	}
	r.entries[key] = v
	return v, nil
}

// Delete empties the slot for key.
func (r *AuxRegistry) Delete(key AuxKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// AuxAs returns the object under key when it has type T.
func AuxAs[T any](r *AuxRegistry, key AuxKey) (T, bool) {
	var zero T
	v, ok := r.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
