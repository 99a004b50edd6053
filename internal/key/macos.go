package key

// macOptionSymbols maps the Unicode symbols a US-layout macOS keyboard
// produces while Option is held back to the physical key they came from.
// Option must not change the matched key identity, so "alt+b" has to
// match an event reporting "∫".
var macOptionSymbols = map[string]string{
	// Option+letter
	"å": "a",
	"∫": "b",
	"ç": "c",
	"∂": "d",
	"´": "e", // dead key, acute accent
	"ƒ": "f",
	"©": "g",
	"˙": "h",
	"ˆ": "i", // dead key, circumflex
	"∆": "j",
	"˚": "k",
	"¬": "l",
	"µ": "m",
	"˜": "n", // dead key, tilde
	"ø": "o",
	"π": "p",
	"œ": "q",
	"®": "r",
	"ß": "s",
	"†": "t",
	"¨": "u", // dead key, diaeresis
	"√": "v",
	"∑": "w",
	"≈": "x",
	"¥": "y",
	"Ω": "z",

	// Option+Shift+letter
	"Å": "A",
	"ı": "B",
	"Ç": "C",
	"Î": "D",
	"Ï": "F",
	"˝": "G",
	"Ó": "H",
	"Ô": "J",
	"": "K", // Apple logo, private use area
	"Ò": "L",
	"Â": "M",
	"Ø": "O",
	"∏": "P",
	"Œ": "Q",
	"‰": "R",
	"Í": "S",
	"ˇ": "T",
	"◊": "V",
	"„": "W",
	"˛": "X",
	"Á": "Y",
	"¸": "Z",

	// Option+digit
	"¡": "1",
	"™": "2",
	"£": "3",
	"¢": "4",
	"∞": "5",
	"§": "6",
	"¶": "7",
	"•": "8",
	"ª": "9",
	"º": "0",
}

// macShiftMetaUpper restores the intended upper-case key when the host
// reports a lower-case letter for a Shift+Meta chord.
var macShiftMetaUpper = map[string]string{
	"a": "A", "b": "B", "c": "C", "d": "D", "e": "E", "f": "F",
	"g": "G", "h": "H", "i": "I", "j": "J", "k": "K", "l": "L",
	"m": "M", "n": "N", "o": "O", "p": "P", "q": "Q", "r": "R",
	"s": "S", "t": "T", "u": "U", "v": "V", "w": "W", "x": "X",
	"y": "Y", "z": "Z",
}
