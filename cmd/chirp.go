// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Marin Skelhorn

package cmd

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skelhorn/aeolian/pkg/chirp"
	"github.com/spf13/cobra"
)

var (
	chirpPresetsFile string
	chirpVolume      uint16
)

var chirpCmd = &cobra.Command{
	Use:   "chirp",
	Short: "Play expressive piezo feedback tones",
	Long: `Synthesizes expressive feedback tones on the sensor board's piezo.

Presets model simple emotions (HAPPY, SAD, PURR, ...) as frequency sweeps,
warbles and tone bursts. Works against any backend that carries the tone
line: the local header, a bridge board or the simulator.

Two presets can be mixed into a new one, and custom libraries live in
plain JSON files.`,
}

var chirpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the emotions in the preset library",
	RunE: func(cmd *cobra.Command, args []string) error {
		library, err := loadEmotionLibrary()
		if err != nil {
			return err
		}

		fmt.Printf("%-14s %-9s %-13s %-9s %-9s %s\n",
			"NAME", "EFFECT", "RANGE", "SPAN", "INTENSITY", "CATEGORY")
		for _, e := range library {
			fmt.Printf("%-14s %-9s %-13s %-9s %-9.2f %s\n",
				e.Name, e.Effect,
				fmt.Sprintf("%d-%dHz", e.StartFreq, e.EndFreq),
				e.Span(), e.Intensity, e.Category)
		}
		return nil
	},
}

var chirpPlayCmd = &cobra.Command{
	Use:   "play NAME...",
	Short: "Play emotions from the library in sequence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, err := loadEmotionLibrary()
		if err != nil {
			return err
		}

		emotions := make([]chirp.Emotion, 0, len(args))
		for _, name := range args {
			emotion, ok := chirp.Find(library, name)
			if !ok {
				return fmt.Errorf("no emotion named %q (see: aeolian chirp list)", name)
			}
			emotions = append(emotions, emotion)
		}

		backend, info, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()

		player := chirp.NewPlayer(backend, chirp.WithVolume(chirpVolume))
		defer player.Mute()

		fmt.Printf("Backend: %s\n", info)
		for i, emotion := range emotions {
			fmt.Printf("Playing %s\n", emotion.Describe())
			if err := player.Play(emotion); err != nil {
				return err
			}
			if i < len(emotions)-1 {
				time.Sleep(150 * time.Millisecond)
			}
		}
		return nil
	},
}

var (
	chirpMixWeight float64
	chirpMixName   string
	chirpMixSave   string
)

var chirpMixCmd = &cobra.Command{
	Use:   "mix NAME NAME",
	Short: "Blend two emotions and play the result",
	Long: `Blends two library emotions into a new one and plays it.

The weight slides every numeric parameter toward the second emotion;
0 keeps the first, 1 becomes the second, 0.5 meets in the middle. The
dominant emotion decides the effect strategy.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		library, err := loadEmotionLibrary()
		if err != nil {
			return err
		}
		first, ok := chirp.Find(library, args[0])
		if !ok {
			return fmt.Errorf("no emotion named %q (see: aeolian chirp list)", args[0])
		}
		second, ok := chirp.Find(library, args[1])
		if !ok {
			return fmt.Errorf("no emotion named %q (see: aeolian chirp list)", args[1])
		}
		if chirpMixWeight < 0 || chirpMixWeight > 1 {
			return fmt.Errorf("--weight must be between 0 and 1")
		}

		mixed := first.MixWith(second, chirpMixWeight, chirpMixName)

		if chirpMixSave != "" {
			if err := chirp.SaveLibrary(chirpMixSave, append(library, mixed)); err != nil {
				return err
			}
			fmt.Printf("Saved library with %s to %s\n", mixed.Name, chirpMixSave)
		}

		backend, info, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()

		player := chirp.NewPlayer(backend, chirp.WithVolume(chirpVolume))
		defer player.Mute()

		fmt.Printf("Playing %s (%s)\n", mixed.Describe(), info)
		return player.Play(mixed)
	},
}

var chirpLoopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Interactive emotion prompt",
	Long: `Interactive prompt for playing and mixing emotions.

Commands:
  NAME           play one emotion (HAPPY, SAD, ...)
  CATEGORY       play a random emotion from a category (positive, ...)
  RANDOM         play any random emotion
  MIX A B [W]    blend A toward B by weight W (default 0.5), play the
                 result and keep it in the session library
  SAVE FILE      write the session library to a JSON file
  LIST           list the session library
  QUIT           exit (also Ctrl+D)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		library, err := loadEmotionLibrary()
		if err != nil {
			return err
		}

		backend, info, err := openBackend()
		if err != nil {
			return err
		}
		defer backend.Close()

		player := chirp.NewPlayer(backend, chirp.WithVolume(chirpVolume))
		defer player.Mute()

		fmt.Printf("Chirp prompt (%s)\n", info)
		fmt.Println("Type an emotion or category name, RANDOM, MIX, SAVE, LIST or QUIT.")

		play := func(e chirp.Emotion) error {
			fmt.Printf("playing %s\n", e.Describe())
			return player.Play(e)
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			fields := strings.Fields(scanner.Text())
			if len(fields) == 0 {
				continue
			}

			switch strings.ToUpper(fields[0]) {
			case "QUIT", "EXIT":
				return nil

			case "LIST":
				for _, e := range library {
					fmt.Printf("  %s\n", e.Describe())
				}

			case "SAVE":
				if len(fields) != 2 {
					fmt.Println("usage: SAVE FILE")
					continue
				}
				if err := chirp.SaveLibrary(fields[1], library); err != nil {
					fmt.Printf("save failed: %v\n", err)
					continue
				}
				fmt.Printf("saved %d emotions to %s\n", len(library), fields[1])

			case "MIX":
				if len(fields) < 3 || len(fields) > 4 {
					fmt.Println("usage: MIX NAME NAME [WEIGHT]")
					continue
				}
				first, ok := chirp.Find(library, fields[1])
				if !ok {
					fmt.Printf("no emotion named %q\n", fields[1])
					continue
				}
				second, ok := chirp.Find(library, fields[2])
				if !ok {
					fmt.Printf("no emotion named %q\n", fields[2])
					continue
				}
				weight := 0.5
				if len(fields) == 4 {
					w, perr := strconv.ParseFloat(fields[3], 64)
					if perr != nil || w < 0 || w > 1 {
						fmt.Println("weight must be a number between 0 and 1")
						continue
					}
					weight = w
				}
				mixed := first.MixWith(second, weight, "")
				if _, exists := chirp.Find(library, mixed.Name); !exists {
					library = append(library, mixed)
				}
				if err := play(mixed); err != nil {
					return err
				}

			case "RANDOM":
				if err := play(library[rng.Intn(len(library))]); err != nil {
					return err
				}

			default:
				if e, ok := chirp.Find(library, fields[0]); ok {
					if err := play(e); err != nil {
						return err
					}
					continue
				}
				// A category name plays a random member
				var members []chirp.Emotion
				for _, e := range library {
					if strings.EqualFold(e.Category, fields[0]) {
						members = append(members, e)
					}
				}
				if len(members) == 0 {
					fmt.Printf("nothing named %q (LIST shows the library)\n", fields[0])
					continue
				}
				if err := play(members[rng.Intn(len(members))]); err != nil {
					return err
				}
			}
		}
	},
}

// loadEmotionLibrary returns the preset library selected by --presets,
// falling back to the built-in set.
func loadEmotionLibrary() ([]chirp.Emotion, error) {
	if chirpPresetsFile == "" {
		return chirp.Library(), nil
	}
	return chirp.LoadLibrary(chirpPresetsFile)
}

func init() {
	chirpCmd.PersistentFlags().StringVar(&chirpPresetsFile, "presets", "", "JSON preset library (default: built-in)")
	chirpCmd.PersistentFlags().Uint16Var(&chirpVolume, "volume", chirp.DefaultVolume, "PWM duty level, 0-65535")

	chirpMixCmd.Flags().Float64Var(&chirpMixWeight, "weight", 0.5, "Blend toward the second emotion, 0-1")
	chirpMixCmd.Flags().StringVar(&chirpMixName, "name", "", "Name for the mixed emotion")
	chirpMixCmd.Flags().StringVar(&chirpMixSave, "save", "", "Write the library plus the mix to this JSON file")

	chirpCmd.AddCommand(chirpListCmd, chirpPlayCmd, chirpMixCmd, chirpLoopCmd, chirpTuiCmd)
	rootCmd.AddCommand(chirpCmd)
}
