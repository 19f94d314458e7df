package usecleanup

// Options controls which triggers fire a callback's pending cleanup.
// Options are supplied on every render and read freshly at the moment
// each trigger fires, so behavior reflects the most recently supplied
// options even though changing options alone never rebuilds a callback.
type Options struct {
	// CleanUpOnCall fires the pending cleanup at the start of the next
	// Invoke, before the operation runs.
	CleanUpOnCall bool

	// CleanUpOnDepsChange fires the pending cleanup when the dependency
	// key changes, before the replacement callback is constructed.
	// When false, the outgoing cleanup is silently dropped by that path.
	CleanUpOnDepsChange bool

	// CleanUpOnUnmount fires the pending cleanup when the hosting Owner
	// is disposed.
	CleanUpOnUnmount bool
}

// defaultOptions returns the default trigger configuration.
func defaultOptions() Options {
	return Options{
		CleanUpOnCall:       true,
		CleanUpOnDepsChange: false,
		CleanUpOnUnmount:    true,
	}
}

// Option configures a cleanup callback.
type Option interface {
	isOption()
	apply(o *Options)
}

type optionFunc func(*Options)

func (f optionFunc) isOption()        {}
func (f optionFunc) apply(o *Options) { f(o) }

// CleanUpOnCall sets whether the pending cleanup fires at the start of
// each Invoke. Defaults to true.
func CleanUpOnCall(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.CleanUpOnCall = enabled
	})
}

// CleanUpOnDepsChange sets whether the pending cleanup fires when the
// dependency key changes. Defaults to false: the outgoing cleanup is
// dropped on key change unless it later fires at disposal.
func CleanUpOnDepsChange(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.CleanUpOnDepsChange = enabled
	})
}

// CleanUpOnUnmount sets whether the pending cleanup fires when the
// hosting Owner is disposed. Defaults to true.
func CleanUpOnUnmount(enabled bool) Option {
	return optionFunc(func(o *Options) {
		o.CleanUpOnUnmount = enabled
	})
}

// resolveOptions builds an Options from the defaults plus overrides.
func resolveOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// optionsCell is the live options holder shared by one hook slot and
// the callbacks it produces. It is refreshed on every render so that
// the Invoke, deps-change, and disposal paths all observe the options
// supplied most recently, not the ones captured at construction time.
// Renders and triggers for one owner run on its scheduler turn, so the
// cell needs no locking.
type optionsCell struct {
	current Options
}

func (c *optionsCell) store(o Options) {
	c.current = o
}

func (c *optionsCell) load() Options {
	return c.current
}
