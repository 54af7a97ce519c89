package main

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Collapses duplicate title/person rows left over from databases created
// before the case-insensitive unique indexes existed. Keeps the oldest row
// of each group and repoints link tables at it.

type row struct {
	ID   uint
	Name string
}

func main() {
	dbPath := "data/catalog.db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	// 1. Duplicate titles (same name after trim, ignoring case)
	var titleGroups []struct {
		Name  string
		Count int
	}
	db.Raw("SELECT TRIM(title) as name, count(*) as count FROM titles WHERE deleted_at IS NULL GROUP BY TRIM(title) COLLATE NOCASE HAVING count > 1").Scan(&titleGroups)

	if len(titleGroups) > 0 {
		fmt.Printf("Found %d duplicate title groups. Fixing...\n", len(titleGroups))
		for _, g := range titleGroups {
			var dups []row
			db.Raw("SELECT id, title as name FROM titles WHERE TRIM(title) = ? COLLATE NOCASE AND deleted_at IS NULL ORDER BY id ASC", g.Name).Scan(&dups)
			if len(dups) < 2 {
				continue
			}

			keep := dups[0]
			fmt.Printf("Keeping ID %d for title '%s', merging %d others...\n", keep.ID, g.Name, len(dups)-1)

			for i := 1; i < len(dups); i++ {
				dup := dups[i]
				// Remap link tables, skipping rows that would collide with the keeper
				db.Exec("UPDATE OR IGNORE title_genres SET title_id = ? WHERE title_id = ?", keep.ID, dup.ID)
				db.Exec("DELETE FROM title_genres WHERE title_id = ?", dup.ID)
				db.Exec("UPDATE OR IGNORE cast_members SET title_id = ? WHERE title_id = ?", keep.ID, dup.ID)
				db.Exec("DELETE FROM cast_members WHERE title_id = ?", dup.ID)
				db.Exec("UPDATE home_section_items SET title_id = ? WHERE title_id = ?", keep.ID, dup.ID)

				db.Exec("DELETE FROM titles WHERE id = ?", dup.ID)
			}
		}
	} else {
		fmt.Println("No duplicate titles found.")
	}

	// 2. Duplicate people, same natural key rule
	var personGroups []struct {
		Name  string
		Count int
	}
	db.Raw("SELECT TRIM(name) as name, count(*) as count FROM people WHERE deleted_at IS NULL GROUP BY TRIM(name) COLLATE NOCASE HAVING count > 1").Scan(&personGroups)

	if len(personGroups) > 0 {
		fmt.Printf("Found %d duplicate person groups. Fixing...\n", len(personGroups))
		for _, g := range personGroups {
			var dups []row
			db.Raw("SELECT id, name FROM people WHERE TRIM(name) = ? COLLATE NOCASE AND deleted_at IS NULL ORDER BY id ASC", g.Name).Scan(&dups)
			if len(dups) < 2 {
				continue
			}

			keep := dups[0]
			fmt.Printf("Keeping ID %d for person '%s', merging %d others...\n", keep.ID, g.Name, len(dups)-1)

			for i := 1; i < len(dups); i++ {
				dup := dups[i]
				db.Exec("UPDATE OR IGNORE cast_members SET person_id = ? WHERE person_id = ?", keep.ID, dup.ID)
				db.Exec("DELETE FROM cast_members WHERE person_id = ?", dup.ID)
				db.Exec("DELETE FROM people WHERE id = ?", dup.ID)
			}
		}
	} else {
		fmt.Println("No duplicate people found.")
	}

	// 3. Rewrite names in place so the NOCASE unique index can be applied
	fmt.Println("Trimming stored names...")
	db.Exec("UPDATE titles SET title = TRIM(title)")
	db.Exec("UPDATE people SET name = TRIM(name)")

	fmt.Println("Done. Restart the server to let AutoMigrate rebuild indexes.")
}
