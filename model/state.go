package model

// State is the compressor view state.
type State struct {
	Original   ImageRecord
	Compressed ImageRecord
	Loading    bool
	Error      string
	Quality    int
}

// InitialState returns state before any upload.
func InitialState() State {
	return State{Quality: DefaultQuality}
}

// Action is a state transition intent.
type Action interface {
	apply(State) State
}

// SetOriginalImage replaces original record.
type SetOriginalImage struct{ Record ImageRecord }

// SetCompressedImage replaces compressed record.
type SetCompressedImage struct{ Record ImageRecord }

// SetLoading sets loading flag.
type SetLoading struct{ Loading bool }

// SetError sets error message, empty string clears it.
type SetError struct{ Message string }

// SetCompressionQuality sets compression quality.
type SetCompressionQuality struct{ Quality int }

func (a SetOriginalImage) apply(s State) State {
	s.Original = copyRecord(a.Record)
	return s
}

func (a SetCompressedImage) apply(s State) State {
	s.Compressed = copyRecord(a.Record)
	return s
}

func (a SetLoading) apply(s State) State {
	s.Loading = a.Loading
	return s
}

func (a SetError) apply(s State) State {
	s.Error = a.Message
	return s
}

func (a SetCompressionQuality) apply(s State) State {
	s.Quality = a.Quality
	return s
}

// Reduce returns new state with action applied. Nil action is ignored.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

func copyRecord(r ImageRecord) ImageRecord {
	if r.File != nil {
		f := *r.File
		r.File = &f
	}
	return r
}
