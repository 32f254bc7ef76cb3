/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package randcheck

import (
	"bytes"
	"fmt"
)

// PooledObject describes an object together with the pool it was drawn
// from, or appended to.
type PooledObject struct {
	Object   interface{}
	PoolName string
}

func (po PooledObject) String() string {
	return fmt.Sprintf("%v", po.Object)
}

// Invocation is the immutable record of one completed action invocation:
// the action's name, the arguments with their pool provenance, the value
// the action returned (if any), and the pools that value was appended to.
// One Invocation is handed to the active LogStrategy per counted step;
// abandoned attempts produce none.
type Invocation struct {
	ActionName    string
	Args          []PooledObject
	ReturnedValue interface{}
	TargetPools   []string
}

func (inv *Invocation) String() string {
	var buffer bytes.Buffer
	buffer.WriteString(inv.ActionName)
	buffer.WriteString("(")
	for i, arg := range inv.Args {
		if i > 0 {
			buffer.WriteString(", ")
		}
		buffer.WriteString(arg.String())
	}
	buffer.WriteString(")-->")
	buffer.WriteString(fmt.Sprintf("%v", inv.ReturnedValue))
	return buffer.String()
}
