package vm

import "fmt"

type Key uint8

const (
	Key0 = Key(iota)
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
)

func (k Key) Valid() bool {
	return k < KeyCount
}

func (k Key) String() string {
	return fmt.Sprintf("%X", uint8(k))
}
