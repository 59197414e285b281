package scene

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

var (
	// ErrEmptyStack reports an operation that needed a resident scene.
	ErrEmptyStack = errors.New("scene stack is empty")

	// ErrDuplicateActivation reports a scene (or id) that is already resident.
	ErrDuplicateActivation = errors.New("scene already resident")
)

// State is the lifecycle state of a scene held by a Stack.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StatePaused
)

func (st State) String() string {
	switch st {
	case StateUninitialized:
		return "Uninitialized"
	case StateActive:
		return "Active"
	case StatePaused:
		return "Paused"
	default:
		return fmt.Sprintf("State(%d)", int(st))
	}
}

// HaltFunc is called when the stack runs out of scenes. It is expected
// not to return in production; if it does, the operation is abandoned.
type HaltFunc func(msg string)

type entry struct {
	scene Scene
	state State
}

// Stack orders resident scenes bottom to top; the top scene is active.
// Removed scenes wait in a dead list until Cleanup reclaims them.
// A Stack belongs to the main thread.
type Stack struct {
	scenes []*entry
	dead   []*entry
	halt   HaltFunc
	log    *zap.Logger
}

// NewStack creates an empty stack. A nil halt logs and exits the process.
func NewStack(log *zap.Logger, halt HaltFunc) *Stack {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Stack{log: log}
	s.SetHalt(halt)
	return s
}

// SetHalt replaces the halt callback. Nil restores the default.
func (s *Stack) SetHalt(halt HaltFunc) {
	if halt == nil {
		halt = func(string) {
			_ = s.log.Sync()
			os.Exit(1)
		}
	}
	s.halt = halt
}

// AddActiveScene pushes sc on top and makes it active, pausing the
// previous top.
func (s *Stack) AddActiveScene(sc Scene) error {
	e, err := s.admit("AddActiveScene", sc)
	if err != nil {
		return err
	}
	if top := s.top(); top != nil {
		s.pause(top)
	}
	s.scenes = append(s.scenes, e)
	s.activate(e)
	return nil
}

// AddInactiveScene inserts sc at the bottom without activating it. On an
// empty stack the scene is also the top and becomes active.
func (s *Stack) AddInactiveScene(sc Scene) error {
	e, err := s.admit("AddInactiveScene", sc)
	if err != nil {
		return err
	}
	s.scenes = append([]*entry{e}, s.scenes...)
	if len(s.scenes) == 1 {
		s.activate(e)
	}
	return nil
}

// GetActiveScene returns the top scene, or halts on an empty stack.
func (s *Stack) GetActiveScene() Scene {
	top := s.requireTop("GetActiveScene")
	if top == nil {
		return nil
	}
	return top.scene
}

// InactivateActiveScene pauses the top scene and moves it to the bottom.
// The new top is resumed or initialized.
func (s *Stack) InactivateActiveScene() {
	top := s.requireTop("InactivateActiveScene")
	if top == nil {
		return
	}
	s.pause(top)
	s.sinkTop()
	s.activate(s.top())
}

// DropActiveScene releases the top scene and moves it to the bottom. It
// will be initialized again, not resumed, when reactivated.
func (s *Stack) DropActiveScene() {
	top := s.requireTop("DropActiveScene")
	if top == nil {
		return
	}
	s.release(top)
	s.sinkTop()
	s.activate(s.top())
}

// ResetActiveScene pauses, soft-resets and resumes the top scene.
func (s *Stack) ResetActiveScene() {
	top := s.requireTop("ResetActiveScene")
	if top == nil {
		return
	}
	s.pause(top)
	s.log.Debug("scene reinitialize", zap.String("scene", top.scene.ID()))
	top.scene.ReInitialize()
	s.activate(top)
}

// RemoveActiveScene releases the top scene, pops it onto the dead list
// and activates the next one. Removing the last scene halts.
func (s *Stack) RemoveActiveScene() {
	top := s.requireTop("RemoveActiveScene")
	if top == nil {
		return
	}
	s.release(top)
	s.scenes = s.scenes[:len(s.scenes)-1]
	s.dead = append(s.dead, top)

	next := s.top()
	if next == nil {
		s.fail("RemoveActiveScene", top.scene.ID())
		return
	}
	s.activate(next)
}

// SetActiveScene moves the resident scene with the given id to the top
// and activates it. Unknown ids leave the stack untouched.
func (s *Stack) SetActiveScene(id string) {
	i := s.index(id)
	if i < 0 {
		s.log.Debug("scene not resident", zap.String("scene", id))
		return
	}
	if i == len(s.scenes)-1 {
		return
	}

	s.pause(s.top())
	e := s.scenes[i]
	s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
	s.scenes = append(s.scenes, e)
	s.activate(e)
}

// Cleanup reclaims one dead scene, releasing it if still initialized.
// It reports whether a scene was reclaimed.
func (s *Stack) Cleanup() bool {
	if len(s.dead) == 0 {
		return false
	}
	e := s.dead[0]
	s.dead[0] = nil
	s.dead = s.dead[1:]
	s.release(e)
	return true
}

// GetPreviousSceneName returns the id of the scene below the top, or ""
// when fewer than two scenes are resident.
func (s *Stack) GetPreviousSceneName() string {
	if len(s.scenes) < 2 {
		return ""
	}
	return s.scenes[len(s.scenes)-2].scene.ID()
}

// KillPreviousScene moves the scene below the top to the dead list
// without touching the active scene.
func (s *Stack) KillPreviousScene() {
	if len(s.scenes) < 2 {
		s.log.Warn("no previous scene to kill", zap.Int("scenes", len(s.scenes)))
		return
	}
	i := len(s.scenes) - 2
	e := s.scenes[i]
	s.scenes = append(s.scenes[:i], s.scenes[i+1:]...)
	s.dead = append(s.dead, e)
	s.log.Debug("scene killed", zap.String("scene", e.scene.ID()))
}

// NumScenes returns the number of resident scenes.
func (s *Stack) NumScenes() int {
	return len(s.scenes)
}

// DeadCount returns the number of scenes awaiting Cleanup.
func (s *Stack) DeadCount() int {
	return len(s.dead)
}

// IDs returns resident scene ids from bottom to top.
func (s *Stack) IDs() []string {
	ids := make([]string, len(s.scenes))
	for i, e := range s.scenes {
		ids[i] = e.scene.ID()
	}
	return ids
}

// StateOf returns the lifecycle state of a resident scene.
func (s *Stack) StateOf(id string) (State, bool) {
	i := s.index(id)
	if i < 0 {
		return StateUninitialized, false
	}
	return s.scenes[i].state, true
}

// IsInitialized reports whether the resident scene id is initialized.
func (s *Stack) IsInitialized(id string) bool {
	st, ok := s.StateOf(id)
	return ok && st != StateUninitialized
}

// IsPaused reports whether the resident scene id is paused.
func (s *Stack) IsPaused(id string) bool {
	st, ok := s.StateOf(id)
	return ok && st == StatePaused
}

// Update forwards to the active scene. An empty stack is a no-op.
func (s *Stack) Update(dt float64) error {
	top := s.top()
	if top == nil {
		return nil
	}
	return top.scene.Update(dt)
}

// Draw forwards to the active scene. An empty stack is a no-op.
func (s *Stack) Draw() error {
	top := s.top()
	if top == nil {
		return nil
	}
	return top.scene.Draw()
}

// ReleaseAll pauses and releases every resident scene from the top down,
// then every dead scene. The stack is empty afterwards.
func (s *Stack) ReleaseAll() {
	for i := len(s.scenes) - 1; i >= 0; i-- {
		s.release(s.scenes[i])
	}
	s.scenes = nil
	for _, e := range s.dead {
		s.release(e)
	}
	s.dead = nil
}

// admit validates sc for insertion and returns its entry. A scene still
// on the dead list is taken back with its lifecycle state.
func (s *Stack) admit(op string, sc Scene) (*entry, error) {
	if sc == nil {
		panic("scene: " + op + " called with a nil scene")
	}
	for _, e := range s.scenes {
		if e.scene == sc || e.scene.ID() == sc.ID() {
			s.log.Warn("scene already resident",
				zap.String("op", op),
				zap.String("scene", sc.ID()),
			)
			return nil, fmt.Errorf("%s %q: %w", op, sc.ID(), ErrDuplicateActivation)
		}
	}
	for i, e := range s.dead {
		if e.scene == sc {
			s.dead = append(s.dead[:i], s.dead[i+1:]...)
			return e, nil
		}
	}
	return &entry{scene: sc}, nil
}

func (s *Stack) top() *entry {
	if len(s.scenes) == 0 {
		return nil
	}
	return s.scenes[len(s.scenes)-1]
}

func (s *Stack) requireTop(op string) *entry {
	top := s.top()
	if top == nil {
		s.fail(op, "")
	}
	return top
}

func (s *Stack) fail(op, last string) {
	fields := []zap.Field{zap.String("op", op), zap.Error(ErrEmptyStack)}
	if last != "" {
		fields = append(fields, zap.String("removed", last))
	}
	s.log.Error("scene stack halted", fields...)
	s.halt(fmt.Sprintf("%s: %v", op, ErrEmptyStack))
}

func (s *Stack) index(id string) int {
	for i, e := range s.scenes {
		if e.scene.ID() == id {
			return i
		}
	}
	return -1
}

// sinkTop moves the top entry to the bottom.
func (s *Stack) sinkTop() {
	n := len(s.scenes)
	top := s.scenes[n-1]
	copy(s.scenes[1:], s.scenes[:n-1])
	s.scenes[0] = top
}

func (s *Stack) activate(e *entry) {
	switch e.state {
	case StateUninitialized:
		s.log.Debug("scene initialize", zap.String("scene", e.scene.ID()))
		e.scene.Initialize()
	case StatePaused:
		s.log.Debug("scene resume", zap.String("scene", e.scene.ID()))
		e.scene.Resume()
	case StateActive:
		return
	}
	e.state = StateActive
}

func (s *Stack) pause(e *entry) {
	if e.state != StateActive {
		return
	}
	s.log.Debug("scene pause", zap.String("scene", e.scene.ID()))
	e.scene.Pause()
	e.state = StatePaused
}

func (s *Stack) release(e *entry) {
	if e.state == StateUninitialized {
		return
	}
	s.pause(e)
	s.log.Debug("scene release", zap.String("scene", e.scene.ID()))
	e.scene.Release()
	e.state = StateUninitialized
}
