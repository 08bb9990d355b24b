// Package ecs provides ECS adapters for bramble.
package ecs

import (
	"github.com/phanxgames/bramble"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// CollisionEventType is the Donburi event type for bramble collision pairs.
var CollisionEventType = events.NewEventType[bramble.CollisionEvent]()

// NodeRef identifies the bramble node an entity mirrors.
type NodeRef struct {
	ID   uint32
	Name string
}

// ContactsData counts collisions a tracked node took part in.
type ContactsData struct {
	Total    int
	LastWith uint32
}

var (
	NodeComponent = donburi.NewComponentType[NodeRef]()
	Contacts      = donburi.NewComponentType[ContactsData]()
)

// DonburiStore is a bramble.EntityStore backed by a Donburi world.
type DonburiStore struct {
	world    donburi.World
	entities map[uint32]donburi.Entity
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Collision events are published to CollisionEventType and can be consumed
// with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) *DonburiStore {
	return &DonburiStore{world: world, entities: make(map[uint32]donburi.Entity)}
}

// Track creates (or returns) the entity mirroring n.
func (s *DonburiStore) Track(n *bramble.Node) donburi.Entity {
	if e, ok := s.entities[n.ID]; ok && s.world.Valid(e) {
		return e
	}
	e := s.world.Create(NodeComponent, Contacts)
	NodeComponent.SetValue(s.world.Entry(e), NodeRef{ID: n.ID, Name: n.Name()})
	s.entities[n.ID] = e
	return e
}

// Untrack removes the entity mirroring the node with the given ID.
func (s *DonburiStore) Untrack(id uint32) {
	if e, ok := s.entities[id]; ok {
		if s.world.Valid(e) {
			s.world.Remove(e)
		}
		delete(s.entities, id)
	}
}

// Entity returns the entity tracking the node with the given ID.
func (s *DonburiStore) Entity(id uint32) (donburi.Entity, bool) {
	e, ok := s.entities[id]
	if !ok || !s.world.Valid(e) {
		return donburi.Null, false
	}
	return e, true
}

// EmitCollision publishes event and bumps the contact counts of tracked
// nodes on both sides.
func (s *DonburiStore) EmitCollision(event bramble.CollisionEvent) {
	s.bump(event.ActiveID, event.PassiveID)
	s.bump(event.PassiveID, event.ActiveID)
	CollisionEventType.Publish(s.world, event)
}

func (s *DonburiStore) bump(id, other uint32) {
	e, ok := s.Entity(id)
	if !ok {
		return
	}
	c := Contacts.Get(s.world.Entry(e))
	c.Total++
	c.LastWith = other
}
