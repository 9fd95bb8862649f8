package pgv2

// Handler is an opaque user-defined-type handler. Interpreting it — what a
// handler actually does with wire bytes — belongs to the UDT subsystem
// named as an external collaborator in SPEC_FULL.md §1; the core only
// needs to store and hand back whatever the caller registered.
type Handler interface{}

// HandlerEntry is the per-connection object_type_registry value from
// SPEC_FULL.md §3. The source stores either a class name to be
// reflectively instantiated, or an already-built handler, in the same map
// slot. Design note §9 asks for a tagged variant instead of overloading one
// field's dynamic type, so construction is explicit and there is no
// reflection in the core.
type HandlerEntry struct {
	factory  func() Handler
	instance Handler
	isFactory bool
}

// NewHandlerFactory wraps a constructor: the handler is built fresh every
// time Resolve is called.
func NewHandlerFactory(fn func() Handler) HandlerEntry {
	return HandlerEntry{factory: fn, isFactory: true}
}

// NewHandlerInstance wraps an already-constructed handler: Resolve always
// returns the same value.
func NewHandlerInstance(h Handler) HandlerEntry {
	return HandlerEntry{instance: h}
}

// Resolve produces the handler for this entry, invoking the factory if
// this entry is a factory variant.
func (e HandlerEntry) Resolve() Handler {
	if e.isFactory {
		return e.factory()
	}
	return e.instance
}

// typeRegistry is the per-connection object_type_registry: pg_type name ->
// HandlerEntry. Unlike typeCache it is not process-wide or synchronized —
// SPEC_FULL.md §3 scopes it per-connection, and invariant 2 (single active
// executor per connection) means it never sees concurrent access.
type typeRegistry struct {
	entries map[string]HandlerEntry
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{entries: make(map[string]HandlerEntry)}
}

func (r *typeRegistry) register(typeName string, entry HandlerEntry) {
	r.entries[typeName] = entry
}

func (r *typeRegistry) resolve(typeName string) (Handler, bool) {
	entry, ok := r.entries[typeName]
	if !ok {
		return nil, false
	}
	return entry.Resolve(), true
}
