package pipeline

// Draft accumulates the PCM blocks of an unsaved recording. It is written by
// a single Processor and must only be read after that Processor has exited.
type Draft struct {
	blocks [][]byte
	size   int
}

func NewDraft() *Draft {
	return &Draft{}
}

func (d *Draft) Append(p []byte) {
	d.blocks = append(d.blocks, p)
	d.size += len(p)
}

// Blocks returns the appended blocks in order.
func (d *Draft) Blocks() [][]byte { return d.blocks }

func (d *Draft) Len() int { return len(d.blocks) }

// Size is the total byte count.
func (d *Draft) Size() int { return d.size }

func (d *Draft) Empty() bool { return len(d.blocks) == 0 }

func (d *Draft) Reset() {
	d.blocks = nil
	d.size = 0
}
