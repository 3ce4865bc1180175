package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Categories ---

const listCategories = `SELECT id, name, created_at FROM categories ORDER BY name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const createCategory = `INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at`

func (q *Queries) CreateCategory(ctx context.Context, name string) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, createCategory, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

type UpdateCategoryParams struct {
	ID   uuid.UUID
	Name string
}

const updateCategory = `UPDATE categories SET name = $2 WHERE id = $1 RETURNING id, name, created_at`

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

const deleteCategory = `DELETE FROM categories WHERE id = $1 RETURNING id`

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteCategory, id).Scan(&deleted)
	return deleted, err
}

// --- Menu items ---

type MenuItemRow struct {
	MenuItem
	CategoryName pgtype.Text
}

const menuItemColumns = `m.id, m.title, m.description, m.category_id, m.price, m.item_type, m.active, m.created_at, c.name`

func scanMenuItemRow(scan func(dest ...any) error) (MenuItemRow, error) {
	var r MenuItemRow
	err := scan(
		&r.ID, &r.Title, &r.Description, &r.CategoryID, &r.Price,
		&r.ItemType, &r.Active, &r.CreatedAt, &r.CategoryName,
	)
	return r, err
}

const listMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items m
LEFT JOIN categories c ON c.id = m.category_id
ORDER BY m.title
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItemRow, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItemRow
	for rows.Next() {
		r, err := scanMenuItemRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type CreateMenuItemParams struct {
	Title       string
	Description pgtype.Text
	CategoryID  pgtype.UUID
	Price       pgtype.Numeric
	ItemType    string
	Active      bool
}

const createMenuItem = `
WITH inserted AS (
	INSERT INTO menu_items (title, description, category_id, price, item_type, active)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, title, description, category_id, price, item_type, active, created_at
)
SELECT m.id, m.title, m.description, m.category_id, m.price, m.item_type, m.active, m.created_at, c.name
FROM inserted m
LEFT JOIN categories c ON c.id = m.category_id
`

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItemRow, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Title, arg.Description, arg.CategoryID, arg.Price, arg.ItemType, arg.Active,
	)
	return scanMenuItemRow(row.Scan)
}

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	Title       string
	Description pgtype.Text
	CategoryID  pgtype.UUID
	Price       pgtype.Numeric
	ItemType    string
	Active      bool
}

const updateMenuItem = `
WITH updated AS (
	UPDATE menu_items
	SET title = $2, description = $3, category_id = $4, price = $5, item_type = $6, active = $7
	WHERE id = $1
	RETURNING id, title, description, category_id, price, item_type, active, created_at
)
SELECT m.id, m.title, m.description, m.category_id, m.price, m.item_type, m.active, m.created_at, c.name
FROM updated m
LEFT JOIN categories c ON c.id = m.category_id
`

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItemRow, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.Title, arg.Description, arg.CategoryID, arg.Price, arg.ItemType, arg.Active,
	)
	return scanMenuItemRow(row.Scan)
}

const deleteMenuItem = `DELETE FROM menu_items WHERE id = $1 RETURNING id`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteMenuItem, id).Scan(&deleted)
	return deleted, err
}

const getMenuItemCategory = `
SELECT c.name
FROM menu_items m
LEFT JOIN categories c ON c.id = m.category_id
WHERE m.title = $1
`

// GetMenuItemCategory resolves the current category name for a menu item
// title. Returns pgx.ErrNoRows when no menu item carries the title; the
// returned text is NULL when the item has no category.
func (q *Queries) GetMenuItemCategory(ctx context.Context, title string) (pgtype.Text, error) {
	var name pgtype.Text
	err := q.db.QueryRow(ctx, getMenuItemCategory, title).Scan(&name)
	return name, err
}
