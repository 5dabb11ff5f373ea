package dispatch

import "fmt"

const DefaultLanguage = "nb"

type messageKey int

const (
	msgNotSupported messageKey = iota
	msgRenderFailed
	msgNoPayload
)

var messages = map[string]map[messageKey]string{
	"nb": {
		msgNotSupported: "Mediatypen %s er ikke støttet ennå.",
		msgRenderFailed: "Noe gikk galt ved visning av %s.",
		msgNoPayload:    "Innebygd element mangler data.",
	},
	"nn": {
		msgNotSupported: "Mediatypen %s er ikkje støtta enno.",
		msgRenderFailed: "Noko gjekk gale ved vising av %s.",
		msgNoPayload:    "Innebygd element manglar data.",
	},
	"en": {
		msgNotSupported: "Media type %s is not supported yet.",
		msgRenderFailed: "Something went wrong while rendering %s.",
		msgNoPayload:    "Embedded element is missing data.",
	},
}

func message(language string, key messageKey, args ...any) string {
	catalogue, ok := messages[language]
	if !ok {
		catalogue = messages[DefaultLanguage]
	}
	return fmt.Sprintf(catalogue[key], args...)
}

// NotSupportedMessage is the message shown for an embed or provider type
// that has no editor.
func NotSupportedMessage(language, typ string) string {
	return message(language, msgNotSupported, typ)
}
