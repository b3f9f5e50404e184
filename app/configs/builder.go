package configs

import (
	"fmt"
	"log"

	"WordLeap/app/clients"
	"WordLeap/app/sentence"
)

func (c *Config) InitializeClients(clientRegistry *clients.Registry, ctrl *sentence.Controller) error {
	if len(c.Clients) == 0 {
		log.Println("ℹ️ No clients configured")
		return nil
	}

	for _, clientCfg := range c.Clients {
		if !clientCfg.Enabled {
			log.Printf("⏭️ Client %s is disabled, skipping\n", clientCfg.Type)
			continue
		}

		log.Printf("🔌 Initializing %s client...\n", clientCfg.Type)
		client, err := clients.CreateClient(clientCfg)
		if err != nil {
			return fmt.Errorf("failed to create %s client: %w", clientCfg.Type, err)
		}

		if err := clientRegistry.Register(client, ctrl); err != nil {
			return fmt.Errorf("failed to register %s client: %w", clientCfg.Type, err)
		}

		log.Printf("✅ %s client initialized\n", clientCfg.Type)
	}

	return nil
}
