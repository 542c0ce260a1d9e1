package commands

// function codes
const (
	fnPower       = 0x00
	fnStandby     = 0x01
	fnInput       = 0x02
	fnVolume      = 0x05
	fnMute        = 0x06
	fnSleepTimer  = 0x0C
	fnDisplay     = 0x0D
	absoluteValue = 0x01
	relativeValue = 0x00
)

func builtin(profile Profile) []Descriptor {
	return []Descriptor{
		{Name: "enable_standby", Help: "enable standby mode", Kind: KindControl, Function: fnStandby, Data: []byte{0x01}},

		{Name: "get_power_state", Help: "print whether the display is on", Kind: KindQuery, Function: fnPower, Decode: boolAt(0)},
		{Name: "power_off", Help: "turn the display off", Kind: KindControl, Function: fnPower, Data: []byte{0x00}},
		{Name: "power_on", Help: "turn the display on", Kind: KindControl, Function: fnPower, Data: []byte{0x01}},
		{Name: "set_power", Help: "set power <on|off>", Kind: KindControl, Function: fnPower, Args: switchArg("set_power", "power state")},

		{Name: "get_input", Help: "print the selected input", Kind: KindQuery, Function: fnInput, Decode: decodeInput},

		{Name: "display_off", Help: "turn the picture off", Kind: KindControl, Function: fnDisplay, Data: []byte{absoluteValue, 0x00}},
		{Name: "display_on", Help: "turn the picture on", Kind: KindControl, Function: fnDisplay, Data: []byte{absoluteValue, 0x01}},

		{Name: "get_volume", Help: "print the volume level", Kind: KindQuery, Function: fnVolume, Decode: byteAt(1)},
		{Name: "volume_up", Help: "raise the volume one step", Kind: KindControl, Function: fnVolume, Data: []byte{relativeValue, 0x00}},
		{Name: "volume_down", Help: "lower the volume one step", Kind: KindControl, Function: fnVolume, Data: []byte{relativeValue, 0x01}},
		{Name: "set_volume", Help: "set volume <0-255>", Kind: KindControl, Function: fnVolume, Data: []byte{absoluteValue}, Args: byteArg("set_volume", "volume")},

		{Name: "is_muted", Help: "print whether audio is muted", Kind: KindQuery, Function: fnMute, Decode: boolAt(1)},
		{Name: "toggle_mute", Help: "toggle audio mute", Kind: KindControl, Function: fnMute, Data: []byte{relativeValue}},
		{Name: "mute", Help: "mute audio", Kind: KindControl, Function: fnMute, Data: []byte{absoluteValue, 0x01}},
		{Name: "unmute", Help: "unmute audio", Kind: KindControl, Function: fnMute, Data: []byte{absoluteValue, 0x00}},

		{
			Name:     "set_sleep_timer",
			Help:     "set sleep timer <minutes>",
			Kind:     KindControl,
			Function: fnSleepTimer,
			Data:     []byte{absoluteValue},
			Args:     allowedArg("set_sleep_timer", "sleep timer duration", profile.SleepTimerValues),
		},
		{Name: "clear_sleep_timer", Help: "turn the sleep timer off", Kind: KindControl, Function: fnSleepTimer, Data: []byte{absoluteValue, 0x00}},

		{Name: "query_raw", Help: "query_raw <function> [data1] [data2], print return data in hex", Kind: KindQuery, Raw: true, Args: rawQueryArgs("query_raw"), Decode: hexPayload},

		{Name: "list_commands", Help: "list the available commands", Kind: KindList},
	}
}
