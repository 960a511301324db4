package options

import (
	"errors"
	"sync"
)

type (
	// Options is an option set.
	Options interface {
		SetOption(opt Option, val interface{}) (err error)
		WithOption(opt Option, val interface{}) Options
		GetOption(opt Option) (val interface{}, ok bool)
		GetOptionDefault(opt Option, def interface{}) (val interface{})
		OptionValues() []*OptionValue
	}

	// Option is an option item.
	Option interface {
		Name() interface{}
		Validate(val interface{}) error
	}

	// OptionValue is an option value pair.
	OptionValue struct {
		Option Option
		Value  interface{}
	}

	// OptionValues is a set of option values, used to initialize an
	// option set in one shot.
	OptionValues map[Option]interface{}

	options struct {
		sync.RWMutex
		opts map[Option]interface{}
	}

	baseOption struct {
		name interface{}
	}

	// BoolOption is an option with a bool value.
	BoolOption interface {
		Option
		Value(val interface{}) bool
	}

	boolOption struct {
		baseOption
	}

	// IntOption is an option with an int value.
	IntOption interface {
		Option
		Value(val interface{}) int
	}

	intOption struct {
		baseOption
	}

	// StringOption is an option with a string value.
	StringOption interface {
		Option
		Value(val interface{}) string
	}

	stringOption struct {
		baseOption
	}
)

// errors
var (
	ErrInvalidOptionValue = errors.New("invalid option value")
)

// NewOptions create an option set.
func NewOptions() Options {
	return &options{
		opts: make(map[Option]interface{}),
	}
}

// NewOptionsWithValues create an option set populated with values.
func NewOptionsWithValues(ovs OptionValues) Options {
	opts := &options{
		opts: make(map[Option]interface{}, len(ovs)),
	}
	for opt, val := range ovs {
		opts.SetOption(opt, val)
	}
	return opts
}

// SetOption add an option value.
func (opts *options) SetOption(opt Option, val interface{}) (err error) {
	if err = opt.Validate(val); err != nil {
		return
	}

	opts.Lock()
	defer opts.Unlock()

	opts.opts[opt] = val
	return
}

// WithOption set an option value.
func (opts *options) WithOption(opt Option, val interface{}) Options {
	opts.SetOption(opt, val)
	return opts
}

// GetOption get an option value.
func (opts *options) GetOption(opt Option) (val interface{}, ok bool) {
	opts.RLock()
	defer opts.RUnlock()
	val, ok = opts.opts[opt]
	return
}

// GetOptionDefault get an option value with default.
func (opts *options) GetOptionDefault(opt Option, def interface{}) (val interface{}) {
	var ok bool
	if val, ok = opts.GetOption(opt); !ok {
		val = def
	}
	return
}

func (opts *options) OptionValues() (res []*OptionValue) {
	opts.RLock()
	defer opts.RUnlock()

	res = make([]*OptionValue, 0, len(opts.opts))
	for opt, val := range opts.opts {
		res = append(res, &OptionValue{opt, val})
	}
	return
}

func (o *baseOption) Name() interface{} {
	return o.name
}

// NewBoolOption create a bool option
func NewBoolOption(name interface{}) BoolOption {
	return &boolOption{baseOption{name}}
}

// Validate validate the option value
func (o *boolOption) Validate(val interface{}) error {
	if _, ok := val.(bool); !ok {
		return ErrInvalidOptionValue
	}
	return nil
}

// Value get option's value, must ensure option value is not empty
func (o *boolOption) Value(val interface{}) bool {
	return val.(bool)
}

// NewIntOption create an int option
func NewIntOption(name interface{}) IntOption {
	return &intOption{baseOption{name}}
}

// Validate validate the option value
func (o *intOption) Validate(val interface{}) error {
	if _, ok := val.(int); !ok {
		return ErrInvalidOptionValue
	}
	return nil
}

// Value get option's value, must ensure option value is not empty
func (o *intOption) Value(val interface{}) int {
	return val.(int)
}

// NewStringOption create a string option
func NewStringOption(name interface{}) StringOption {
	return &stringOption{baseOption{name}}
}

// Validate validate the option value
func (o *stringOption) Validate(val interface{}) error {
	if _, ok := val.(string); !ok {
		return ErrInvalidOptionValue
	}
	return nil
}

// Value get option's value, must ensure option value is not empty
func (o *stringOption) Value(val interface{}) string {
	return val.(string)
}
