// Package ecs provides ECS adapters for bramble's collision dispatch.
//
// The primary adapter is [NewDonburiStore], which forwards every collision
// pair dispatched in a scene into a [Donburi] world as a typed event.
// Subscribe to [CollisionEventType] in your ECS systems to receive them.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//
// Nodes registered with [DonburiStore.Track] also get an entity carrying a
// [NodeRef] and a running [Contacts] count.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
