/*
Package booking implements a slot scheduling machine on top of the perennial
engine: customers request appointments, the machine places a payment hold
through a tracked action, and the booking is confirmed or abandoned when the
payment gateway answers.

The package provides the calendar vocabulary (days, times, ranges, slots,
services), the System state type implementing perennial.Machine, and the
protocol payloads exchanged with the host (payment requests and results,
notifications, booking requests). CalendarSource abstracts where hosts find
calendar definitions; the loam adapter is the document-backed implementation.

State lives entirely in exported fields so it serializes cleanly through
pkg/persistence. All money amounts are integer cents.
*/
package booking
