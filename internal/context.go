package internal

// Context carries a value through the owner tree. Set stores the
// value on the current owner; Value resolves through the owner chain
// and falls back to the initial value outside any owner.
type Context struct {
	rt      *Runtime
	initial any
}

func (r *Runtime) NewContext(initial any) *Context {
	return &Context{
		rt:      r,
		initial: initial,
	}
}

func (c *Context) Value() any {
	r := c.rt
	r.enter()
	defer r.exit()

	for o := r.tracker.currentOwner; o != nil; o = o.parent {
		if v, ok := o.context[c]; ok {
			return v
		}
	}

	return c.initial
}

// Set binds the value in the current owner. Outside any owner there
// is nothing to hold it and the call is a no-op.
func (c *Context) Set(v any) {
	r := c.rt
	r.enter()
	defer r.exit()

	o := r.tracker.currentOwner
	if o == nil {
		return
	}

	if o.context == nil {
		o.context = make(map[any]any)
	}
	o.context[c] = v
}
