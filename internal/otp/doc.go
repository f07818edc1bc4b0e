// Package otp simulates phone verification for driver registration.
//
// A Session sends a six-digit code to a phone number through a Sender,
// locks resending for a countdown, and verifies the code the user types.
// No message ever leaves the process: LogSender only records the send.
package otp
