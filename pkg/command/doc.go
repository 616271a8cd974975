// Package command provides the text command protocol used between a host
// and the stepper controller.
package command

// A command is a single line of delimiter separated tokens:
//
//	<header>,<token>,<arg1>,...,<argN>;
//
// The header is optional and identifies a device when several devices share
// one transport. Commands are parsed by Args, dispatched by Handler and
// replies are built with Message.
