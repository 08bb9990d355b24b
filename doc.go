// Package bramble is the runtime core of a retained-mode 2D scene engine for
// [Ebitengine].
//
// Bramble keeps a tree of [Node] values with cached affine transforms, runs
// time-based [Action] values against them, reports collider overlaps to
// physics listeners and fires interval [Timer] callbacks. Rendering is left to
// node OnDraw callbacks; the engine only hands them a [DrawContext] holding
// the node's world matrix.
//
// # Quick start
//
// [Run] opens a window and drives the engine:
//
//	e := bramble.NewEngine(bramble.DefaultConfig())
//	scene := e.NewScene("main")
//	e.EnterScene(scene, false)
//	bramble.Run(e)
//
// [Engine] also implements [ebiten.Game], so it can be passed to
// ebiten.RunGame directly. Headless callers use [Engine.Tick] with a
// [ManualClock] instead.
//
// # Scene graph
//
// Nodes are created through the engine and attached under [Scene.Root].
// Children inherit their parent's transform and opacity unless marked
// position-fixed. Children with a negative order update and draw before
// their parent; the rest after it.
//
//	box := e.NewSizedNode("box", 100, 100, 50, 50)
//	box.SetPivot(0.5, 0.5)
//	scene.Add(box)
//
// # Tick order
//
// Each [Engine.Tick] applies pending config reloads, fires due timers, steps
// actions, runs node update callbacks, recomputes dirty transforms and then
// dispatches collider pairs to running listeners. Pausing freezes timers,
// actions, OnUpdate and physics; OnFixedUpdate still runs.
//
// # Collisions
//
// Colliders filter pairs with a chipmunk [cp.ShapeFilter]. A node's collider
// reports to another only when its mask covers the other's categories and
// the two do not share a non-zero group.
//
//	box.SetCollider(bramble.ShapeRect)
//	box.AddListener("hits", func(ctx bramble.PhysicsContext) {
//		log.Println(ctx.ActiveNode().Name(), ctx.Relation)
//	})
//
// # Camera
//
// A [Camera] attached with [Scene.SetCamera] pans, zooms and rotates the
// drawn view and culls sized nodes outside it. Colliders and node transforms
// stay in world space. Position-fixed nodes draw in screen space.
//
//	cam := bramble.NewCamera(bramble.Rect{Width: 640, Height: 480})
//	cam.Follow(box, 0, 0, 0.1)
//	scene.SetCamera(cam)
//
// [Ebitengine]: https://ebitengine.org
// [cp.ShapeFilter]: https://pkg.go.dev/github.com/jakecoffman/cp#ShapeFilter
package bramble
