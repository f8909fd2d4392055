// Package flow contains the consumer loops that sit on the data path of
// the valve tools. Both shapes block on the parameter publisher rather
// than polling it:
//
//   - Copier releases input byte by byte or line by line, each unit paid
//     for with one grant from the quantity quota.
//
//   - Holder keeps the newest line and races its holding time against
//     the next line's arrival; the loser of the race goes to the drain.
//
// Termination through the publisher interrupts both loops promptly, even
// while they are parked on the quota or blocked in a read.
package flow
