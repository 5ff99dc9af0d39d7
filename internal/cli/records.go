package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/vetclinic/internal/control"
	"github.com/vietddude/vetclinic/internal/core/domain"
)

var ownerInput domain.OwnerInput

var (
	petOwnerID int
	petInput   domain.PetInput
	petBreed   string
)

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Manage pet owners",
}

var ownersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List owners",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		owners, err := app.Services.Owners.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tSTATUS")
		for _, o := range owners {
			_, _ = fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\n", o.ID, o.FirstName, o.LastName, o.Email, o.Phone, o.Status)
		}
		return w.Flush()
	}),
}

var ownersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an owner and their pets",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, app *control.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		d, err := app.Services.Owners.Detail(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s <%s> %s\n\n", d.Owner.FirstName, d.Owner.LastName, d.Owner.Email, d.Owner.Phone)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "PET\tNAME\tSPECIES\tBREED\tAGE\tLAST VISIT")
		for _, p := range d.Pets {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Species, p.Breed, p.Age, p.LastVisit)
		}
		return w.Flush()
	}),
}

var ownersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register an owner",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		o, err := app.Services.Owners.Create(ctx, ownerInput)
		if err != nil {
			return err
		}
		fmt.Printf("Created owner %d\n", o.ID)
		return nil
	}),
}

var ownersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an owner",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, app *control.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.Services.Owners.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted owner %d\n", id)
		return nil
	}),
}

var petsCmd = &cobra.Command{
	Use:   "pets",
	Short: "Manage patients",
}

var petsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pets",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		pets, err := app.Services.Pets.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tSPECIES\tBREED\tOWNER\tSTATUS")
		for _, p := range pets {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Name, p.Species, deref(p.Breed), deref(p.OwnerName), deref(p.Status))
		}
		return w.Flush()
	}),
}

var petsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a pet for an owner",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		in := petInput
		in.Owner = domain.LinkOwner(petOwnerID)
		if petBreed != "" {
			in.Breed = &petBreed
		}
		p, err := app.Services.Pets.Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Created pet %d\n", p.ID)
		return nil
	}),
}

var petsPhotoCmd = &cobra.Command{
	Use:   "upload-photo <id> <file>",
	Short: "Upload a pet photo",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, app *control.App, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		url, err := app.Services.Pets.UploadPhoto(ctx, id, filepath.Base(args[1]), f)
		if err != nil {
			return err
		}
		fmt.Println(url)
		return nil
	}),
}

var historyCmd = &cobra.Command{
	Use:   "history [pet-id]",
	Short: "List medical history, optionally for one pet",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, app *control.App, args []string) error {
		var (
			records []domain.Record
			err     error
		)
		if len(args) == 1 {
			id, perr := parseID(args[0])
			if perr != nil {
				return perr
			}
			records, err = app.Services.History.ByPet(ctx, id)
		} else {
			records, err = app.Services.History.List(ctx)
		}
		if err != nil {
			return err
		}
		printRecords(records)
		return nil
	}),
}

var vetsCmd = &cobra.Command{
	Use:   "vets [id]",
	Short: "List veterinarians or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, app *control.App, args []string) error {
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			v, err := app.Services.Vets.Get(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%d\t%s\n", v.Key(), v.DisplayName())
			return nil
		}

		users, err := app.Services.Users.Veterinarians(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS")
		for _, u := range users {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.FullName(), u.Email, domain.Label(u.Status))
		}
		return w.Flush()
	}),
}

func init() {
	f := ownersCreateCmd.Flags()
	f.StringVar(&ownerInput.FirstName, "first-name", "", "first name")
	f.StringVar(&ownerInput.LastName, "last-name", "", "last name")
	f.StringVar(&ownerInput.Email, "email", "", "email")
	f.StringVar(&ownerInput.Phone, "phone", "", "phone")
	f.StringVar(&ownerInput.Address, "address", "", "address")
	f.StringVar(&ownerInput.Notes, "notes", "", "notes")
	_ = ownersCreateCmd.MarkFlagRequired("first-name")

	f = petsCreateCmd.Flags()
	f.IntVar(&petOwnerID, "owner", 0, "owner id")
	f.StringVar(&petInput.Name, "name", "", "pet name")
	f.StringVar(&petInput.Species, "species", "", "species")
	f.StringVar(&petBreed, "breed", "", "breed")
	_ = petsCreateCmd.MarkFlagRequired("owner")
	_ = petsCreateCmd.MarkFlagRequired("name")

	ownersCmd.AddCommand(ownersListCmd, ownersShowCmd, ownersCreateCmd, ownersDeleteCmd)
	petsCmd.AddCommand(petsListCmd, petsCreateCmd, petsPhotoCmd)
	rootCmd.AddCommand(ownersCmd, petsCmd, historyCmd, vetsCmd)
}

func printRecords(records []domain.Record) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPET\tTYPE\tTITLE\tAPPLIED\tNEXT")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.PetID, domain.Label(r.Type), r.Title, deref(r.AppliedAt), deref(r.NextDate))
	}
	_ = w.Flush()
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func deref[T ~string](p *T) string {
	if p == nil || *p == "" {
		return "-"
	}
	return string(*p)
}
