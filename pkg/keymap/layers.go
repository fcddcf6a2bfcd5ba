package keymap

// NumLayers is the number of keymap layers.
const NumLayers = 4

// NumEncoders is the number of rotary encoders.
const NumEncoders = 4

// KeysPerLayer is the number of positions in a layer: five rows of twelve
// keys followed by the four encoder push buttons.
const KeysPerLayer = 5*12 + NumEncoders

// Layer is one keymap layer in LAYOUT order.
type Layer [KeysPerLayer]Keycode

// EncoderAction maps one encoder's rotation.
type EncoderAction struct {
	CCW Keycode
	CW  Keycode
}

const ___ = Transparent

// Layers holds the four keymap layers.
//
//	0: base
//	1: function row, navigation, arrows
//	2, 3: reserved, fully transparent
var Layers = [NumLayers]Layer{
	{
		KC_ESC, KC_1, KC_2, KC_3, KC_4, KC_5, KC_6, KC_7, KC_8, KC_9, KC_0, KC_BSPC,
		KC_TAB, KC_Q, KC_W, KC_E, KC_R, KC_T, KC_Y, KC_U, KC_I, KC_O, KC_P, KC_BSLS,
		KC_CAPS, KC_A, KC_S, KC_D, KC_F, KC_G, KC_H, KC_J, KC_K, KC_L, KC_SCLN, KC_QUOT,
		KC_LSFT, KC_Z, KC_X, KC_C, KC_V, KC_B, KC_N, KC_M, KC_COMM, KC_DOT, KC_SLSH, KC_RSFT,
		KC_LCTL, KC_LALT, MO(1), KC_SPC, KC_LBRC, KC_MINS, KC_EQL, KC_RBRC, KC_ENT, MO(1), KC_RGUI, KC_RCTL,
		RM_TOGG, KC_MPLY, KC_MUTE, KC_MPLY,
	},
	{
		KC_GRV, ___, ___, ___, ___, ___, ___, ___, ___, ___, ___, KC_DEL,
		KC_F1, KC_F2, KC_F3, KC_F4, KC_F5, KC_F6, KC_F7, KC_F8, KC_F9, KC_F10, KC_F11, KC_F12,
		KC_INS, KC_HOME, KC_END, KC_PGUP, KC_PGDN, KC_PSCR, KC_SCRL, KC_PAUSE, ___, KC_UP, ___, ___,
		___, ___, ___, ___, ___, ___, ___, ___, KC_LEFT, KC_DOWN, KC_RGHT, ___,
		___, ___, ___, ___, NoKey, NoKey, NoKey, NoKey, ___, ___, ___, ___,
		___, ___, ___, ___,
	},
	transparentLayer(),
	transparentLayer(),
}

// Encoders holds the rotation actions per layer and encoder.
var Encoders = [NumLayers][NumEncoders]EncoderAction{
	{{KC_LEFT, KC_RGHT}, {KC_VOLU, KC_VOLD}, {KC_MNXT, KC_MPRV}, {RM_VALU, RM_VALD}},
	{{RM_PREV, RM_NEXT}, {RM_HUEU, RM_HUED}, {RM_SATU, RM_SATD}, {RM_SPDU, RM_SPDD}},
	{{___, ___}, {___, ___}, {___, ___}, {___, ___}},
	{{___, ___}, {___, ___}, {___, ___}, {___, ___}},
}

func transparentLayer() Layer {
	var l Layer
	for i := range l {
		l[i] = Transparent
	}
	return l
}

// Resolve returns the keycode at pos for the active layer stack. Layers are
// searched from the highest active index down through transparent keys;
// layer 0 is always active. Out of range positions yield NoKey.
func Resolve(active []int, pos int) Keycode {
	if pos < 0 || pos >= KeysPerLayer {
		return NoKey
	}
	for _, layer := range searchOrder(active) {
		if k := Layers[layer][pos]; k != Transparent {
			return k
		}
	}
	return NoKey
}

// Encoder returns the action for rotating encoder enc in the active stack.
func Encoder(active []int, enc int, clockwise bool) Keycode {
	if enc < 0 || enc >= NumEncoders {
		return NoKey
	}
	for _, layer := range searchOrder(active) {
		a := Encoders[layer][enc]
		k := a.CCW
		if clockwise {
			k = a.CW
		}
		if k != Transparent {
			return k
		}
	}
	return NoKey
}

// searchOrder returns valid active layers from highest to lowest, ending with 0.
func searchOrder(active []int) []int {
	var seen [NumLayers]bool
	order := make([]int, 0, NumLayers)
	for layer := NumLayers - 1; layer > 0; layer-- {
		for _, a := range active {
			if a == layer && !seen[layer] {
				seen[layer] = true
				order = append(order, layer)
			}
		}
	}
	return append(order, 0)
}
