package keymap

import "strconv"

// Keycode is a 16-bit action code in the QMK numbering.
type Keycode uint16

// Sentinels and layer actions.
const (
	NoKey       Keycode = 0x0000 // XXXXXXX
	Transparent Keycode = 0x0001 // _______

	momentaryBase Keycode = 0x5220
	momentaryMax  Keycode = momentaryBase + 0x1F
)

// MO returns the momentary-layer keycode for layer.
func MO(layer int) Keycode {
	return momentaryBase + Keycode(layer&0x1F)
}

// Momentary returns the layer activated by k while held.
func (k Keycode) Momentary() (int, bool) {
	if k < momentaryBase || k > momentaryMax {
		return 0, false
	}
	return int(k - momentaryBase), true
}

// Basic HID usage codes.
const (
	KC_A Keycode = 0x04 + iota
	KC_B
	KC_C
	KC_D
	KC_E
	KC_F
	KC_G
	KC_H
	KC_I
	KC_J
	KC_K
	KC_L
	KC_M
	KC_N
	KC_O
	KC_P
	KC_Q
	KC_R
	KC_S
	KC_T
	KC_U
	KC_V
	KC_W
	KC_X
	KC_Y
	KC_Z
	KC_1
	KC_2
	KC_3
	KC_4
	KC_5
	KC_6
	KC_7
	KC_8
	KC_9
	KC_0
	KC_ENT
	KC_ESC
	KC_BSPC
	KC_TAB
	KC_SPC
	KC_MINS
	KC_EQL
	KC_LBRC
	KC_RBRC
	KC_BSLS
	_ // non-US hash
	KC_SCLN
	KC_QUOT
	KC_GRV
	KC_COMM
	KC_DOT
	KC_SLSH
	KC_CAPS
	KC_F1
	KC_F2
	KC_F3
	KC_F4
	KC_F5
	KC_F6
	KC_F7
	KC_F8
	KC_F9
	KC_F10
	KC_F11
	KC_F12
	KC_PSCR
	KC_SCRL
	KC_PAUSE
	KC_INS
	KC_HOME
	KC_PGUP
	KC_DEL
	KC_END
	KC_PGDN
	KC_RGHT
	KC_LEFT
	KC_DOWN
	KC_UP
)

// Modifiers.
const (
	KC_LCTL Keycode = 0xE0 + iota
	KC_LSFT
	KC_LALT
	KC_LGUI
	KC_RCTL
	KC_RSFT
	KC_RALT
	KC_RGUI
)

// Consumer/media keys.
const (
	KC_MUTE Keycode = 0xA8 + iota
	KC_VOLU
	KC_VOLD
	KC_MNXT
	KC_MPRV
	KC_MSTP
	KC_MPLY
)

// RGB matrix control keys.
const (
	RM_TOGG Keycode = 0x7840 + iota
	RM_NEXT
	RM_PREV
	RM_HUEU
	RM_HUED
	RM_SATU
	RM_SATD
	RM_VALU
	RM_VALD
	RM_SPDU
	RM_SPDD
)

var keycodeNames = map[Keycode]string{
	NoKey: "XXXXXXX", Transparent: "_______",
	KC_A: "A", KC_B: "B", KC_C: "C", KC_D: "D", KC_E: "E", KC_F: "F", KC_G: "G",
	KC_H: "H", KC_I: "I", KC_J: "J", KC_K: "K", KC_L: "L", KC_M: "M", KC_N: "N",
	KC_O: "O", KC_P: "P", KC_Q: "Q", KC_R: "R", KC_S: "S", KC_T: "T", KC_U: "U",
	KC_V: "V", KC_W: "W", KC_X: "X", KC_Y: "Y", KC_Z: "Z",
	KC_1: "1", KC_2: "2", KC_3: "3", KC_4: "4", KC_5: "5",
	KC_6: "6", KC_7: "7", KC_8: "8", KC_9: "9", KC_0: "0",
	KC_ENT: "Enter", KC_ESC: "Esc", KC_BSPC: "Bksp", KC_TAB: "Tab", KC_SPC: "Space",
	KC_MINS: "-", KC_EQL: "=", KC_LBRC: "[", KC_RBRC: "]", KC_BSLS: "\\",
	KC_SCLN: ";", KC_QUOT: "'", KC_GRV: "`", KC_COMM: ",", KC_DOT: ".", KC_SLSH: "/",
	KC_CAPS: "Caps",
	KC_F1: "F1", KC_F2: "F2", KC_F3: "F3", KC_F4: "F4", KC_F5: "F5", KC_F6: "F6",
	KC_F7: "F7", KC_F8: "F8", KC_F9: "F9", KC_F10: "F10", KC_F11: "F11", KC_F12: "F12",
	KC_PSCR: "PrtSc", KC_SCRL: "ScrLk", KC_PAUSE: "Pause", KC_INS: "Ins",
	KC_HOME: "Home", KC_PGUP: "PgUp", KC_DEL: "Del", KC_END: "End", KC_PGDN: "PgDn",
	KC_RGHT: "Right", KC_LEFT: "Left", KC_DOWN: "Down", KC_UP: "Up",
	KC_LCTL: "LCtrl", KC_LSFT: "LShft", KC_LALT: "LAlt", KC_LGUI: "LGui",
	KC_RCTL: "RCtrl", KC_RSFT: "RShft", KC_RALT: "RAlt", KC_RGUI: "RGui",
	KC_MUTE: "Mute", KC_VOLU: "Vol+", KC_VOLD: "Vol-", KC_MNXT: "Next",
	KC_MPRV: "Prev", KC_MSTP: "Stop", KC_MPLY: "Play",
	RM_TOGG: "RGBTog", RM_NEXT: "RGBNext", RM_PREV: "RGBPrev",
	RM_HUEU: "Hue+", RM_HUED: "Hue-", RM_SATU: "Sat+", RM_SATD: "Sat-",
	RM_VALU: "Val+", RM_VALD: "Val-", RM_SPDU: "Spd+", RM_SPDD: "Spd-",
}

func (k Keycode) String() string {
	if name, ok := keycodeNames[k]; ok {
		return name
	}
	if layer, ok := k.Momentary(); ok {
		return "MO(" + strconv.Itoa(layer) + ")"
	}
	return "0x" + strconv.FormatUint(uint64(k), 16)
}
