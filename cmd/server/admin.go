package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/unilocator/server/internal/server/storage"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
	Long:  "Administrative commands for inspecting users, devices and pairing codes",
}

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "List all registered users",
	Run:   runListUsersCommand,
}

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List all devices for a user",
	Run:   runListDevicesCommand,
}

var listCodesCmd = &cobra.Command{
	Use:   "list-codes",
	Short: "List active pairing codes for a user",
	Run:   runListCodesCommand,
}

var purgeCodesCmd = &cobra.Command{
	Use:   "purge-codes",
	Short: "Delete inactive pairing codes older than a cutoff",
	Run:   runPurgeCodesCommand,
}

func init() {
	listDevicesCmd.Flags().String("email", "", "User email (required)")
	listDevicesCmd.MarkFlagRequired("email")

	listCodesCmd.Flags().String("email", "", "User email (required)")
	listCodesCmd.MarkFlagRequired("email")

	purgeCodesCmd.Flags().Duration("older-than", 7*24*time.Hour, "Delete inactive codes older than this")

	adminCmd.AddCommand(
		listUsersCmd,
		listDevicesCmd,
		listCodesCmd,
		purgeCodesCmd,
	)
}

// adminDB loads the environment and opens the database for one-shot
// admin commands.
func adminDB() *storage.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	db, err := storage.NewPostgresDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runListUsersCommand(cmd *cobra.Command, args []string) {
	db := adminDB()
	defer db.Close()

	userRepo := storage.NewUserRepository(db)
	deviceRepo := storage.NewDeviceRepository(db)
	ctx := context.Background()

	users, err := userRepo.ListAll(ctx)
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}

	if len(users) == 0 {
		fmt.Println("No users registered.")
		return
	}

	fmt.Printf("Users (%d):\n", len(users))
	fmt.Println(strings.Repeat("=", 90))
	fmt.Printf("%-36s %-30s %-8s %-8s\n", "ID", "Email", "Devices", "Active")
	fmt.Println(strings.Repeat("=", 90))

	for _, user := range users {
		deviceCount, err := deviceRepo.CountActiveByUser(ctx, user.ID)
		if err != nil {
			log.Printf("Warning: failed to count devices for %s: %v", user.Email, err)
		}
		activeStatus := "Yes"
		if !user.Active {
			activeStatus = "No"
		}
		fmt.Printf("%-36s %-30s %-8d %-8s\n", user.ID, user.Email, deviceCount, activeStatus)
	}
	fmt.Println(strings.Repeat("=", 90))
}

func runListDevicesCommand(cmd *cobra.Command, args []string) {
	email, _ := cmd.Flags().GetString("email")

	db := adminDB()
	defer db.Close()

	userRepo := storage.NewUserRepository(db)
	deviceRepo := storage.NewDeviceRepository(db)
	ctx := context.Background()

	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		log.Fatalf("User not found: %s", email)
	}

	fmt.Printf("User: %s (%s)\n\n", user.Email, user.ID)

	devices, err := deviceRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		log.Fatalf("Failed to get devices: %v", err)
	}

	if len(devices) == 0 {
		fmt.Println("No devices connected for this user.")
		return
	}

	fmt.Printf("Devices (%d):\n", len(devices))
	fmt.Println(strings.Repeat("=", 100))
	fmt.Printf("%-36s %-20s %-12s %-22s %-8s\n", "ID", "Name", "Code", "Last Seen", "Online")
	fmt.Println(strings.Repeat("=", 100))

	now := time.Now().UTC()
	for _, device := range devices {
		lastSeen := "never"
		if device.LastSeen != nil {
			lastSeen = device.LastSeen.Format(time.RFC3339)
		}
		onlineStatus := "No"
		if device.Online(now) {
			onlineStatus = "Yes"
		}
		fmt.Printf("%-36s %-20s %-12s %-22s %-8s\n",
			device.ID,
			device.DeviceName,
			device.Code,
			lastSeen,
			onlineStatus,
		)
	}
	fmt.Println(strings.Repeat("=", 100))
}

func runListCodesCommand(cmd *cobra.Command, args []string) {
	email, _ := cmd.Flags().GetString("email")

	db := adminDB()
	defer db.Close()

	userRepo := storage.NewUserRepository(db)
	codeRepo := storage.NewCodeRepository(db)
	ctx := context.Background()

	user, err := userRepo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		log.Fatalf("User not found: %s", email)
	}

	codes, err := codeRepo.ListActiveByUser(ctx, user.ID)
	if err != nil {
		log.Fatalf("Failed to list codes: %v", err)
	}

	if len(codes) == 0 {
		fmt.Println("No active pairing codes for this user.")
		return
	}

	fmt.Printf("Active pairing codes for %s (%d):\n", user.Email, len(codes))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("%-12s %-10s %-22s\n", "Code", "Uses", "Expires")
	fmt.Println(strings.Repeat("=", 70))

	for _, code := range codes {
		fmt.Printf("%-12s %d/%-8d %-22s\n",
			code.Code,
			code.UseCount,
			code.MaxUses,
			code.ExpiresAt.Format(time.RFC3339),
		)
	}
	fmt.Println(strings.Repeat("=", 70))
}

func runPurgeCodesCommand(cmd *cobra.Command, args []string) {
	olderThan, _ := cmd.Flags().GetDuration("older-than")

	db := adminDB()
	defer db.Close()

	codeRepo := storage.NewCodeRepository(db)
	ctx := context.Background()

	n, err := codeRepo.DeleteInactiveOlderThan(ctx, olderThan)
	if err != nil {
		log.Fatalf("Failed to purge codes: %v", err)
	}

	fmt.Printf("Purged %d inactive pairing codes older than %s\n", n, olderThan)
}
