package main

import (
	"github.com/NextMind-AI/marlie"
)

// Configuration comes from the environment (or a .env file):
//
//	VONAGE_JWT, VONAGE_SENDER_ID, OPENAI_API_KEY,
//	TRINKS_API_KEY, TRINKS_ESTABELECIMENTO_ID
//
// are required. DATABASE_URL and S3_BUCKET enable the booking audit sinks,
// ELEVENLABS_API_KEY enables voice notes.
func main() {
	bot := marlie.New()
	bot.Start()
}
