// Package room holds the state of the single chat room and decides who
// receives which event.
//
// The Engine owns the roster of joined participants and the bounded message
// history. Every inbound event and every disconnect notification is processed
// to completion under one room-wide lock, including the outbound fan-out it
// triggers, so all listeners observe broadcasts in the same relative order.
// Connections are supplied by the transport through the Conn interface.
package room
