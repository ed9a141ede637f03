package composite

import (
	"fmt"
	"math/bits"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

const (
	// DefaultClearExpression rejects fill (bit 0), cloud shadow (bit 3) and cloud (bit 5) pixels
	DefaultClearExpression = "!hasBit(qa, 0) && !hasBit(qa, 3) && !hasBit(qa, 5)"
	// DefaultScoreExpression counts the cloud related bits: shadow, snow, cloud, cloud and cirrus confidences (mask 0x3F8)
	DefaultScoreExpression = "countBits(qa, 1016)"
)

// QAFilter evaluates QA codes: Clear tells whether a pixel is usable,
// Score ranks usable pixels (the lower, the better).
// Results are memoized per QA code. QAFilter is safe for concurrent use.
type QAFilter struct {
	clearExpression, scoreExpression string
	clear, score                     *vm.Program

	mu    sync.RWMutex
	cache map[int]qaEval
}

type qaEval struct {
	clear bool
	score int
}

func qaOptions() []expr.Option {
	return []expr.Option{
		expr.Env(map[string]interface{}{"qa": 0}),
		expr.Function("hasBit",
			func(params ...interface{}) (interface{}, error) {
				return params[0].(int)&(1<<uint(params[1].(int))) != 0, nil
			},
			new(func(int, int) bool)),
		expr.Function("countBits",
			func(params ...interface{}) (interface{}, error) {
				return bits.OnesCount(uint(params[0].(int) & params[1].(int))), nil
			},
			new(func(int, int) int)),
	}
}

// NewQAFilter compiles the two expressions. The QA code is available as the integer variable "qa",
// along with the functions hasBit(qa, n) and countBits(qa, mask).
func NewQAFilter(clearExpression, scoreExpression string) (*QAFilter, error) {
	if clearExpression == "" {
		clearExpression = DefaultClearExpression
	}
	if scoreExpression == "" {
		scoreExpression = DefaultScoreExpression
	}
	f := &QAFilter{
		clearExpression: clearExpression,
		scoreExpression: scoreExpression,
		cache:           map[int]qaEval{},
	}
	var err error
	if f.clear, err = expr.Compile(clearExpression, append(qaOptions(), expr.AsBool())...); err != nil {
		return nil, fmt.Errorf("NewQAFilter.clear: %w", err)
	}
	if f.score, err = expr.Compile(scoreExpression, append(qaOptions(), expr.AsInt())...); err != nil {
		return nil, fmt.Errorf("NewQAFilter.score: %w", err)
	}
	// Fail early on runtime errors
	if _, err = f.eval(0); err != nil {
		return nil, err
	}
	return f, nil
}

// DefaultQAFilter returns the filter for the Landsat pixel_qa band
func DefaultQAFilter() *QAFilter {
	f, err := NewQAFilter(DefaultClearExpression, DefaultScoreExpression)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *QAFilter) String() string {
	return fmt.Sprintf("clear: %s, score: %s", f.clearExpression, f.scoreExpression)
}

func (f *QAFilter) eval(code int) (qaEval, error) {
	f.mu.RLock()
	e, ok := f.cache[code]
	f.mu.RUnlock()
	if ok {
		return e, nil
	}
	env := map[string]interface{}{"qa": code}
	c, err := expr.Run(f.clear, env)
	if err != nil {
		return e, fmt.Errorf("QAFilter.clear(%d): %w", code, err)
	}
	s, err := expr.Run(f.score, env)
	if err != nil {
		return e, fmt.Errorf("QAFilter.score(%d): %w", code, err)
	}
	e = qaEval{clear: c.(bool), score: s.(int)}
	f.mu.Lock()
	f.cache[code] = e
	f.mu.Unlock()
	return e, nil
}

// Clear returns true if the QA code denotes a usable pixel.
// A code that cannot be evaluated is not clear.
func (f *QAFilter) Clear(qa float64) bool {
	e, err := f.eval(int(qa))
	return err == nil && e.clear
}

// Score returns the cloudiness score of the QA code
func (f *QAFilter) Score(qa float64) int {
	e, err := f.eval(int(qa))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return e.score
}
