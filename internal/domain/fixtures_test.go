package domain

import "time"

func testRemoteActivity() Activity {
	return Activity{Key: RemoteKey(11), Name: "Development", ProjectKey: RemoteKey(1)}
}

func testRole() *Role {
	return &Role{ID: 3, Name: "Developer", FullName: "Team / Developer"}
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}
