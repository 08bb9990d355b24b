package bramble

// EntityStore is the interface for optional ECS integration.
// When set on a Scene, collision events are forwarded to the ECS.
type EntityStore interface {
	EmitCollision(event CollisionEvent)
}

// CollisionEvent carries one dispatched collision pair for the ECS bridge.
type CollisionEvent struct {
	ActiveID    uint32
	PassiveID   uint32
	ActiveName  string
	PassiveName string
	Relation    Relation
}

// Scene is a named tree root that the engine can make active. Only nodes in
// the active scene are updated, drawn and tested for collisions.
type Scene struct {
	name   string
	root   *Node
	engine *Engine
	store  EntityStore
	camera *Camera

	// OnEnter is called after the scene becomes active.
	OnEnter func()
	// OnExit is called before another scene replaces this one.
	OnExit func()
}

// NewScene creates a scene with a pre-created root node sized to the
// configured window.
func (e *Engine) NewScene(name string) *Scene {
	s := &Scene{name: name, engine: e}
	root := newNode(e, "root")
	// The root is the coordinate origin of the scene and never collides.
	root.pivotX, root.pivotY = 0, 0
	root.RemoveCollider()
	root.SetSize(float64(e.cfg.Width), float64(e.cfg.Height))
	root.scene = s
	s.root = root
	return s
}

// Name returns the scene name.
func (s *Scene) Name() string { return s.name }

// Root returns the scene's root node.
func (s *Scene) Root() *Node { return s.root }

// Engine returns the engine that created the scene.
func (s *Scene) Engine() *Engine { return s.engine }

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// SetCamera sets the camera the scene is drawn through. nil draws world
// coordinates directly to the screen.
func (s *Scene) SetCamera(c *Camera) { s.camera = c }

// Camera returns the scene camera, or nil.
func (s *Scene) Camera() *Camera { return s.camera }

// Add attaches nodes to the scene root.
func (s *Scene) Add(nodes ...*Node) {
	s.root.AddChildren(nodes...)
}

// IsActive reports whether the scene is its engine's active scene.
func (s *Scene) IsActive() bool {
	return s.engine != nil && s.engine.scene == s
}

// Dispose disposes the whole tree. The scene must not be active or saved on
// the engine's scene stack.
func (s *Scene) Dispose() {
	if s.engine != nil {
		if !assertf(s.engine.scene != s, "dispose of active scene %q", s.name) {
			return
		}
		s.engine.dropFromStack(s)
	}
	s.root.Dispose()
}
