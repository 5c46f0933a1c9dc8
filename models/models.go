package models

// All returns every model in migration order, for AutoMigrate in main and in tests
func All() []interface{} {
	return []interface{}{
		&User{},
		&Trade{},
		&Region{},
		&Agency{},
		&AgencyClaim{},
		&LaborRequest{},
		&CraftRequirement{},
		&Notification{},
		&Conversation{},
		&Message{},
		&ConversationRead{},
	}
}
